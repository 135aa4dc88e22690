package commands

import (
	"github.com/BurntSushi/toml"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

// Metadata is the static part of a Descriptor as written in a catalog file.
type Metadata struct {
	Name        string   `toml:"name"`
	Aliases     []string `toml:"aliases"`
	Tags        []string `toml:"tags"`
	Description string   `toml:"description"`
	Usage       string   `toml:"usage"`
	GroupOnly   bool     `toml:"group_only"`
	AdminOnly   bool     `toml:"admin_only"`
	MinArgs     int      `toml:"min_args"`
}

type catalogFile struct {
	Commands []Metadata `toml:"command"`
}

// ParseCatalog decodes a list of [[command]] tables.
func ParseCatalog(data string) ([]Metadata, error) {
	var file catalogFile
	md, err := toml.Decode(data, &file)
	if err != nil {
		return nil, errors.Wrapf(err, "[commands ParseCatalog] decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[commands ParseCatalog] unknown key %s", undecoded[0].String())
	}
	return file.Commands, nil
}

// Bind pairs catalog entries with their executors, in catalog order. Every entry
// needs an executor and every executor an entry.
func Bind(catalog []Metadata, executors map[string]Executor) (*Table, error) {
	descriptors := make([]Descriptor, 0, len(catalog))
	bound := make(map[string]bool, len(catalog))
	for _, m := range catalog {
		exec, ok := executors[m.Name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrNotFound, "[commands Bind] no executor for %q", m.Name)
		}
		bound[m.Name] = true

		d := Descriptor{
			Name:        m.Name,
			Aliases:     m.Aliases,
			Tags:        m.Tags,
			Description: m.Description,
			Usage:       m.Usage,
			GroupOnly:   m.GroupOnly,
			AdminOnly:   m.AdminOnly,
			Execute:     exec,
		}
		if m.MinArgs > 0 {
			d.ValidateArgs = MinArgs(m.MinArgs)
		}
		descriptors = append(descriptors, d)
	}

	for name := range executors {
		if !bound[name] {
			return nil, errors.Wrapf(errors.ErrNotFound, "[commands Bind] executor %q missing from catalog", name)
		}
	}
	return NewTable(descriptors...)
}
