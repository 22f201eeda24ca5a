package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alfredjeanlab/confvault/internal/model"
	"gopkg.in/yaml.v3"
)

// File formats accepted by cv save.
const (
	formatJSON = "json"
	formatTOML = "toml"
	formatYAML = "yaml"
)

// formatFromPath guesses the format from a file extension, defaulting to
// JSON.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML
	case ".yaml", ".yml":
		return formatYAML
	}
	return formatJSON
}

// readEntityFile reads an entity of kind from path ("-" for stdin).
func readEntityFile(kind model.Kind, path, format string) (model.Entity, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = formatFromPath(path)
	}
	return decodeEntity(kind, data, format)
}

// decodeEntity parses data in format as an entity of kind. TOML and YAML
// documents are converted to JSON so every format gets the same field
// names and checks.
func decodeEntity(kind model.Kind, data []byte, format string) (model.Entity, error) {
	var doc map[string]any
	switch format {
	case formatJSON:
		return model.Decode(kind, data)
	case formatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q (must be json, toml or yaml)", format)
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting %s to JSON: %w", format, err)
	}
	return model.Decode(kind, js)
}
