package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
)

// capabilityConfigSchema constrains the on-disk capability-configuration
// document a host passes to LoadCapabilityConfig, grounded on the
// teacher's Validator.compileSchema (a Draft2020 jsonschema.Compiler fed
// one in-memory resource, then compiled and used to Validate the decoded
// document before it is trusted).
const capabilityConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "filesystem_enabled": {"type": "boolean"},
    "network_enabled": {"type": "boolean"},
    "network": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "allowed": {"type": "boolean"},
        "allow_hosts": {"type": "array", "items": {"type": "string"}}
      }
    },
    "env_whitelist": {"type": "array", "items": {"type": "string"}},
    "random_seed": {"type": "integer"},
    "clock_frozen_at": {"type": "integer"}
  }
}`

type capabilityConfigDoc struct {
	FilesystemEnabled bool     `json:"filesystem_enabled"`
	NetworkEnabled    bool     `json:"network_enabled"`
	Network           struct {
		Allowed    bool     `json:"allowed"`
		AllowHosts []string `json:"allow_hosts"`
	} `json:"network"`
	EnvWhitelist  []string `json:"env_whitelist"`
	RandomSeed    int64    `json:"random_seed"`
	ClockFrozenAt int64    `json:"clock_frozen_at"`
}

// LoadCapabilityConfig validates raw against capabilityConfigSchema and
// decodes it into a pycontext.CapabilityConfig, so a host embedding the
// interpreter can accept capability grants from an untrusted config file
// without hand-rolling field-by-field validation.
func LoadCapabilityConfig(raw []byte) (pycontext.CapabilityConfig, error) {
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return pycontext.CapabilityConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "schema://capability-config.json"
	if err := compiler.AddResource(url, strings.NewReader(capabilityConfigSchema)); err != nil {
		return pycontext.CapabilityConfig{}, err
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return pycontext.CapabilityConfig{}, err
	}
	if err := schema.Validate(data); err != nil {
		return pycontext.CapabilityConfig{}, fmt.Errorf("capability config failed validation: %w", err)
	}

	var doc capabilityConfigDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return pycontext.CapabilityConfig{}, err
	}

	return pycontext.CapabilityConfig{
		FilesystemEnabled: doc.FilesystemEnabled,
		NetworkEnabled:    doc.NetworkEnabled,
		Network: pycontext.NetworkPolicy{
			Allowed:    doc.Network.Allowed,
			AllowHosts: doc.Network.AllowHosts,
		},
		EnvWhitelist:  doc.EnvWhitelist,
		RandomSeed:    doc.RandomSeed,
		ClockFrozenAt: doc.ClockFrozenAt,
	}, nil
}
