package pack

import (
	"encoding/json"
	"errors"
)

// A Provision binds a provided identifier to a module.  Without an Export the identifier is the module itself: its
// default export if it has one, otherwise its namespace.  With an Export the identifier is that named export, as in
// {"whatwg-fetch", "fetch"}.
//
// In a project file a provision is written either as "module" or as ["module", "export"].
type Provision struct {
	Module string
	Export string
}

// MarshalJSON writes the provision in its short form.
func (pv Provision) MarshalJSON() ([]byte, error) {
	if pv.Export == `` {
		return json.Marshal(pv.Module)
	}
	return json.Marshal([]string{pv.Module, pv.Export})
}

// UnmarshalJSON accepts "module" and ["module", "export"].
func (pv *Provision) UnmarshalJSON(data []byte) error {
	var module string
	if err := json.Unmarshal(data, &module); err == nil {
		*pv = Provision{Module: module}
		return nil
	}
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return errNotProvision
	}
	*pv = Provision{Module: pair[0], Export: pair[1]}
	return nil
}

var errNotProvision = errors.New(`expected "module" or ["module", "export"]`)
