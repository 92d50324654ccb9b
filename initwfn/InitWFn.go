// Package initwfn wraps Gorgonia weight initializers so that they can
// be JSON serialized into configuration files and used to initialize
// both Gorgonia nodes and gonum matrices.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Type describes the different weight initializers that are available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
)

// registered maps each Type to the concrete Config it is decoded into
var registered = map[Type]reflect.Type{
	GlorotU:  reflect.TypeOf(GlorotUConfig{}),
	GlorotN:  reflect.TypeOf(GlorotNConfig{}),
	HeU:      reflect.TypeOf(HeUConfig{}),
	HeN:      reflect.TypeOf(HeNConfig{}),
	Zeroes:   reflect.TypeOf(ZeroesConfig{}),
	Ones:     reflect.TypeOf(OnesConfig{}),
	Constant: reflect.TypeOf(ConstantConfig{}),
	Gaussian: reflect.TypeOf(GaussianConfig{}),
	Uniform:  reflect.TypeOf(UniformConfig{}),
}

// Config describes a Gorgonia InitWFn and can create it
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// InitWFn wraps a Gorgonia InitWFn so that it can be JSON marshalled
// and unmarshalled. In JSON, an InitWFn is an object with the fields
// Type and Config, for example:
//
//	{"Type": "GlorotU", "Config": {"Gain": 1.0}}
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

func newInitWFn(c Config) (*InitWFn, error) {
	if c == nil {
		return nil, fmt.Errorf("newInitWFn: nil config")
	}
	return &InitWFn{initWFn: c.Create(), Type: c.Type(), Config: c}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// InitDense fills m with values drawn from the initializer
func (i *InitWFn) InitDense(m *mat.Dense) {
	r, c := m.Dims()
	values := i.initWFn(tensor.Float64, r, c).([]float64)
	for row := 0; row < r; row++ {
		m.SetRow(row, values[row*c:(row+1)*c])
	}
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	ty, ok := registered[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown initializer type %q",
			raw.Type)
	}

	value := reflect.New(ty)
	if len(raw.Config) > 0 {
		if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: could not decode %v config: %v",
				raw.Type, err)
		}
	}

	i.Config = value.Elem().Interface().(Config)
	i.Type = raw.Type
	i.initWFn = i.Config.Create()
	return nil
}
