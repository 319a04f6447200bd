package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML keys that may appear in a project overlay.
const (
	keyEndpoint  = "endpoint"
	keyTransport = "transport"
	keyQuery     = "query"
	keyOutput    = "output"
	keyLogging   = "logging"
	keyTelemetry = "telemetry"
)

// ShallowMergeYAML applies the top-level sections of the YAML file at
// overlayPath onto target. A section present in the overlay replaces the
// whole section in target; sections the overlay leaves out are untouched.
// Unknown keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = mergeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// mergeSection decodes node into a zero value of the section type so the
// section is replaced rather than merged field by field.
func mergeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyEndpoint:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Endpoint = v
	case keyTransport:
		var v TransportConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Transport = v
	case keyQuery:
		var v QueryConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Query = v
	case keyOutput:
		var v OutputConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Output = v
	case keyLogging:
		var v LoggingConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keyTelemetry:
		var v TelemetryConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Telemetry = v
	}
	return nil
}
