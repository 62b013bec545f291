package loader

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/disgoorg/disunit/disunit/unit"
)

// Decode parses an artifact into its typed definition. Unknown fields are rejected.
func Decode(path string, data []byte) (unit.Definition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML(data)
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported artifact type %q", filepath.Ext(path))
	}
}

func decodeTOML(data []byte) (unit.Definition, error) {
	var h unit.Header
	if err := toml.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	def, err := unit.NewDefinition(h.Kind)
	if err != nil {
		return nil, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err = dec.Decode(def); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown fields: %s", strict.String())
		}
		return nil, err
	}
	return def, nil
}

func decodeYAML(data []byte) (unit.Definition, error) {
	var h unit.Header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	def, err := unit.NewDefinition(h.Kind)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(def); err != nil {
		return nil, err
	}
	return def, nil
}
