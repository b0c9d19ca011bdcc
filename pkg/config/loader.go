package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and ECHOD_* environment variables, in that order.
// The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	LoadEnv(cfg)
	return cfg, nil
}

// LoadFile merges the YAML file at path into cfg.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := Decode(cfg, data); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Decode merges YAML data into cfg. Keys absent from data keep their current
// values; unknown keys are rejected.
func Decode(cfg *Config, data []byte) error {
	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	for key, v := range present {
		if key == "log" {
			if section, ok := v.(map[string]any); ok {
				for sub := range section {
					cfg.setSource("log."+sub, SourceFile)
				}
			}
			continue
		}
		cfg.setSource(key, SourceFile)
	}
	return nil
}
