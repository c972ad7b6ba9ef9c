package pack

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// A Rule selects the transforms applied to modules whose path matches Test.  If Include is not empty, the module
// must also be inside one of the included directories.  When several rules match, the first one wins.
type Rule struct {
	Test    string      `json:"test"`
	Include []string    `json:"include,omitempty"`
	Use     []Transform `json:"use"`
}

// A Transform names a loader and its options, such as {"url-loader", {"limit": 10000}}.
type Transform struct {
	Loader  string         `json:"loader"`
	Options map[string]any `json:"options,omitempty"`
}

// Int returns an integer option.  Options decoded from JSON hold float64 values, both forms are accepted.
func (t Transform) Int(key string) (int, bool) {
	switch v := t.Options[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool returns a boolean option.
func (t Transform) Bool(key string) bool {
	v, _ := t.Options[key].(bool)
	return v
}

// Matcher returns the compiled rules and noParse patterns of the configuration.
func (cfg *Config) Matcher() (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, len(cfg.Rules))}
	for i, rule := range cfg.Rules {
		rx, err := compile(rule.Test)
		if err != nil {
			return nil, configErr(fmt.Sprintf(`rules[%d].test`, i), err)
		}
		m.rules[i] = compiledRule{Rule: rule, test: rx}
	}
	for i, pattern := range cfg.NoParse {
		rx, err := compile(pattern)
		if err != nil {
			return nil, configErr(fmt.Sprintf(`noParse[%d]`, i), err)
		}
		m.noParse = append(m.noParse, rx)
	}
	return m, nil
}

// A Matcher matches module paths against the rules and noParse patterns of a configuration.
type Matcher struct {
	rules   []compiledRule
	noParse []*regexp.Regexp
}

type compiledRule struct {
	Rule
	test *regexp.Regexp
}

// Rule returns the first rule that applies to the path.
func (m *Matcher) Rule(path string) (Rule, bool) {
	slashed := filepath.ToSlash(path)
	for _, rule := range m.rules {
		if !rule.test.MatchString(slashed) {
			continue
		}
		if len(rule.Include) > 0 && !within(path, rule.Include) {
			continue
		}
		return rule.Rule, true
	}
	return Rule{}, false
}

// NoParse is true if the dependencies of the module at path must not be followed.
func (m *Matcher) NoParse(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, rx := range m.noParse {
		if rx.MatchString(slashed) {
			return true
		}
	}
	return false
}

func within(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == `` {
		return nil, fmt.Errorf(`empty pattern`)
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf(`%w in %q`, err, pattern)
	}
	return rx, nil
}
