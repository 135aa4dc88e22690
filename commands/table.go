package commands

import (
	"sort"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

// Table is an immutable, ordered set of commands.
type Table struct {
	descriptors []Descriptor
}

// NewTable checks that every name and alias is unique and keeps the given order.
func NewTable(descriptors ...Descriptor) (*Table, error) {
	seen := make(map[string]string)
	claim := func(owner, name string) error {
		if name == "" {
			return errors.Wrapf(errors.ErrInvalidInput, "command %q has an empty name or alias", owner)
		}
		if other, ok := seen[name]; ok {
			return errors.Wrapf(errors.ErrAlreadyExists, "%q is used by both %q and %q", name, other, owner)
		}
		seen[name] = owner
		return nil
	}

	table := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if err := claim(d.Name, d.Name); err != nil {
			return nil, err
		}
		for _, a := range d.Aliases {
			if a == d.Name {
				continue
			}
			if err := claim(d.Name, a); err != nil {
				return nil, err
			}
		}
		if d.Execute == nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "command %q has no executor", d.Name)
		}
		d.Aliases = append([]string(nil), d.Aliases...)
		d.Tags = append([]string(nil), d.Tags...)
		table = append(table, d)
	}
	return &Table{descriptors: table}, nil
}

// Resolve finds a command by exact name or alias.
func (t *Table) Resolve(name string) (Descriptor, bool) {
	if t == nil || name == "" {
		return Descriptor{}, false
	}
	for _, d := range t.descriptors {
		if d.Matches(name) {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.descriptors)
}

// All returns the commands in table order.
func (t *Table) All() []Descriptor {
	if t == nil {
		return nil
	}
	return append([]Descriptor(nil), t.descriptors...)
}

// Group is the commands sharing a first tag.
type Group struct {
	Tag      string
	Commands []Descriptor
}

// Grouped returns the commands grouped by first tag, tags sorted, commands in table
// order. Commands without a tag go under fallback.
func (t *Table) Grouped(fallback string, include func(Descriptor) bool) []Group {
	byTag := make(map[string][]Descriptor)
	for _, d := range t.All() {
		if include != nil && !include(d) {
			continue
		}
		tag := d.Tag()
		if tag == "" {
			tag = fallback
		}
		byTag[tag] = append(byTag[tag], d)
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	groups := make([]Group, 0, len(tags))
	for _, tag := range tags {
		groups = append(groups, Group{Tag: tag, Commands: byTag[tag]})
	}
	return groups
}
