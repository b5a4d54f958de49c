package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/assessiq/backend/internal/models"
)

// readSubmission decodes a submission file; .yaml and .yml are read as YAML,
// everything else as JSON.
func readSubmission(path string) (models.Submission, error) {
	var sub models.Submission
	data, err := os.ReadFile(path)
	if err != nil {
		return sub, fmt.Errorf("read %s: %w", path, err)
	}

	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sub); err != nil {
			return sub, fmt.Errorf("parse %s: %w", path, err)
		}
		return sub, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sub); err != nil {
		return sub, fmt.Errorf("parse %s: %w", path, err)
	}
	return sub, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json" || ext == ".yaml" || ext == ".yml"
}

func writeOutput(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		// Round-trip through JSON so YAML keys match the JSON field names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
