package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplyFile overlays the YAML document at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := decodeStrict(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// readLimits loads just the limits section of an overlay
func readLimits(path string) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var doc struct {
		Limits Limits `yaml:"limits"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Limits{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := validate.Struct(doc.Limits); err != nil {
		return Limits{}, fmt.Errorf("invalid limits in %s: %w", path, err)
	}
	return doc.Limits, nil
}

// decodeStrict rejects unknown keys so typos in the overlay surface early.
// An empty document is not an error.
func decodeStrict(data []byte, target interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
