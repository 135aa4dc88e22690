package commands

import (
	"strings"
)

// DefaultPrefixes are the characters that mark a message as a command.
var DefaultPrefixes = []string{"!", ".", "/", "#"}

// Invocation is a message body split into its command parts.
type Invocation struct {
	Prefix string
	Name   string
	Args   []string
	Text   string
}

// Parse splits body into prefix, lower-cased command name, args and the remaining text.
// It reports false when body does not start with one of prefixes or names no command.
func Parse(body string, prefixes []string) (Invocation, bool) {
	body = strings.TrimSpace(body)
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(body, prefix) {
			continue
		}

		rest := strings.TrimSpace(body[len(prefix):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return Invocation{}, false
		}

		name := fields[0]
		text := strings.TrimSpace(rest[len(name):])
		return Invocation{
			Prefix: prefix,
			Name:   strings.ToLower(name),
			Args:   fields[1:],
			Text:   text,
		}, true
	}
	return Invocation{}, false
}

// UsageLine renders a usage string for the prefix that was used. A usage that does not
// start with the command name is shown as is.
func UsageLine(prefix string, d Descriptor) string {
	usage := d.Usage
	if usage == "" {
		usage = d.Name
	}
	if strings.HasPrefix(usage, d.Name) {
		return prefix + usage
	}
	return usage
}
