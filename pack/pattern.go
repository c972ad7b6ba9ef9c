package pack

import (
	"fmt"
	"strconv"
	"strings"
)

// A Pattern is a filename template such as "[name].js" or "[chunkhash].[id].js".  Hash placeholders may carry a width,
// as in "[contenthash:8]".
type Pattern string

// Vars holds the values substituted into a Pattern.
type Vars struct {
	Name string
	ID   string
	Hash string
	Ext  string
}

var placeholders = map[string]bool{
	`name`: false, `id`: false, `ext`: false,
	`hash`: true, `chunkhash`: true, `contenthash`: true,
}

// Map returns the pattern with every placeholder replaced by the result of fn.  Width is zero unless the placeholder
// specified one.  Text that is not a recognized placeholder is copied as is.
func (p Pattern) Map(fn func(placeholder string, width int) string) string {
	var buf strings.Builder
	s := string(p)
	for {
		i := strings.IndexByte(s, '[')
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i:], ']')
		if j < 0 {
			break
		}
		name, width, ok := parsePlaceholder(s[i+1 : i+j])
		if !ok {
			buf.WriteString(s[:i+1])
			s = s[i+1:]
			continue
		}
		buf.WriteString(s[:i])
		buf.WriteString(fn(name, width))
		s = s[i+j+1:]
	}
	buf.WriteString(s)
	return buf.String()
}

// Validate returns an error if the pattern is empty or contains an unrecognized placeholder.
func (p Pattern) Validate() error {
	if p == `` {
		return fmt.Errorf(`empty filename pattern`)
	}
	s := string(p)
	for {
		i := strings.IndexByte(s, '[')
		if i < 0 {
			return nil
		}
		j := strings.IndexByte(s[i:], ']')
		if j < 0 {
			return fmt.Errorf(`unterminated placeholder in %q`, string(p))
		}
		if _, _, ok := parsePlaceholder(s[i+1 : i+j]); !ok {
			return fmt.Errorf(`unrecognized placeholder %q in %q`, s[i:i+j+1], string(p))
		}
		s = s[i+j+1:]
	}
}

// Expand substitutes vars into the pattern.  Hash placeholders with a width are truncated to that width.
func (p Pattern) Expand(vars Vars) string {
	return p.Map(func(name string, width int) string {
		switch name {
		case `name`:
			return vars.Name
		case `id`:
			return vars.ID
		case `ext`:
			return vars.Ext
		}
		if width > 0 && width < len(vars.Hash) {
			return vars.Hash[:width]
		}
		return vars.Hash
	})
}

// Unique expands the pattern for each entry name and reports the first two names that produce the same file.
// [chunkhash] and [contenthash] differ per entry, but [hash] is shared by the whole build and so tells nothing apart.
func (p Pattern) Unique(names []string) (string, string, bool) {
	seen := make(map[string]string, len(names))
	for _, name := range names {
		file := p.Map(func(placeholder string, _ int) string {
			switch placeholder {
			case `name`, `id`:
				return name
			case `chunkhash`, `contenthash`:
				return "\x00" + name
			}
			return ``
		})
		if prior, dup := seen[file]; dup {
			return prior, name, false
		}
		seen[file] = name
	}
	return ``, ``, true
}

// Distinguishes is true if the pattern can tell chunks apart, which requires an id or a hash.
func (p Pattern) Distinguishes() bool {
	found := false
	p.Map(func(name string, _ int) string {
		if name == `id` || placeholders[name] {
			found = true
		}
		return ``
	})
	return found
}

func parsePlaceholder(s string) (string, int, bool) {
	name, suffix, hasWidth := strings.Cut(s, `:`)
	isHash, ok := placeholders[name]
	if !ok {
		return ``, 0, false
	}
	if !hasWidth {
		return name, 0, true
	}
	if !isHash {
		return ``, 0, false
	}
	width, err := strconv.Atoi(suffix)
	if err != nil || width <= 0 {
		return ``, 0, false
	}
	return name, width, true
}
