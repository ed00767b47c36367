package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/samuelfneumann/autolearn/environment"
)

// Type represents a specific type of an agent Config. Config's with
// this type create Agents of the corresponding type.
type Type string

const (
	EGreedyDQNLinear     Type = "EGreedyDQN-Linear"
	SoftmaxPPOLinear     Type = "SoftmaxPPO-Linear"
	GaussianPPOLinear    Type = "GaussianPPO-Linear"
	GaussianGPOMDPLinear Type = "GaussianGPOMDP-Linear"
	GaussianDDPGLinear   Type = "GaussianDDPG-Linear"
)

// Registered types with the package. Once a Type has been registered
// a TypedConfig with that Type can be deserialized.
//
// Each agent package registers its own Config types to avoid circular
// imports.
var (
	registeredTypes = make(map[Type]reflect.Type)
	registerMu      sync.RWMutex
)

// Register registers an agent Type with a concrete Config type so that
// upon deserialization of a TypedConfig, Configs of type agentType are
// deserialized into the concrete type.
func Register(agentType Type, config Config) {
	registerMu.Lock()
	defer registerMu.Unlock()
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// Create validates the Config and creates its agent
func Create(c Config, desc environment.Descriptor,
	seed uint64) (Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v: %w", c.Type(), err)
	}

	a, err := c.Create(desc, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v: %w", c.Type(), err)
	}
	if !c.ValidAgent(a) {
		return nil, fmt.Errorf("create: %v: config created invalid agent %T",
			c.Type(), a)
	}
	return a, nil
}

// TypedConfig wraps a Config so that it can be JSON marshaled and
// unmarshaled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig types the argument Config
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return err
	}

	t.Type = typeName
	t.Config = config
	return nil
}

// unmarshalConfig uses reflection to unmarshal a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJSONField,
	valueJSONField string) (Config, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	var typeName Type
	if err := json.Unmarshal(m[typeJSONField], &typeName); err != nil {
		return nil, "", fmt.Errorf("unmarshalConfig: %w", err)
	}

	registerMu.RLock()
	ty, found := registeredTypes[typeName]
	registerMu.RUnlock()
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unregistered agent "+
			"type %q", typeName)
	}

	value := reflect.New(ty)
	if err := json.Unmarshal(m[valueJSONField], value.Interface()); err != nil {
		return nil, "", fmt.Errorf("unmarshalConfig: %w", err)
	}
	return value.Elem().Interface().(Config), typeName, nil
}
