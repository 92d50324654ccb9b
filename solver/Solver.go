// Package solver wraps Gorgonia Solvers so that they can be JSON
// serialized into configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes the different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

var registered = map[Type]reflect.Type{
	Vanilla: reflect.TypeOf(VanillaConfig{}),
	Adam:    reflect.TypeOf(AdamConfig{}),
	RMSProp: reflect.TypeOf(RMSPropConfig{}),
}

// Config describes a Gorgonia Solver and can create it
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if the Config's hyperparameters are
	// illegal
	Validate() error
}

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled. In JSON, a Solver is an object with the fields Type and
// Config, for example:
//
//	{"Type": "Adam", "Config": {"StepSize": 0.001, "Epsilon": 1e-8,
//	    "Beta1": 0.9, "Beta2": 0.999, "Batch": 1}}
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %v", err)
	}

	return &Solver{Solver: c.Create(), Type: t, Config: c}, nil
}

// Clone returns a new Solver with the same configuration. Gorgonia
// solvers keep per-node state, so every network must be stepped by its
// own Solver.
func (s *Solver) Clone() (*Solver, error) {
	return newSolver(s.Type, s.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	ty, ok := registered[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown solver type %q", raw.Type)
	}

	value := reflect.New(ty)
	if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
		return fmt.Errorf("unmarshalJSON: could not decode %v config: %v",
			raw.Type, err)
	}

	solver, err := newSolver(raw.Type, value.Elem().Interface().(Config))
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	*s = *solver
	return nil
}
