package pack

import "errors"

// ErrConfiguration is matched by every *ConfigError using errors.Is.
var ErrConfiguration = errors.New(`configuration error`)

// A ConfigError reports a field of the configuration that could not be resolved.  The build must not proceed.
type ConfigError struct {
	Field string // such as "mode", "entry[index]" or "resolve.alias[~]"
	Err   error
}

func configErr(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

func (e *ConfigError) Error() string {
	return `pack: ` + e.Field + `: ` + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }
