package pack

import "fmt"

// A Mode selects between a production and a development build.  There are exactly two modes.
type Mode string

const (
	Development Mode = `development`
	Production  Mode = `production`
)

// ParseMode parses the value of NODE_ENV.  An empty or unrecognized value is an error, there is no default mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if err := mode.Validate(); err != nil {
		return ``, err
	}
	return mode, nil
}

// Validate returns a *ConfigError unless the mode is Development or Production.
func (mode Mode) Validate() error {
	switch mode {
	case Development, Production:
		return nil
	case ``:
		return configErr(`mode`, fmt.Errorf(`no mode specified, expected %q or %q`, Development, Production))
	default:
		return configErr(`mode`, fmt.Errorf(`unrecognized mode %q, expected %q or %q`, string(mode), Development, Production))
	}
}
