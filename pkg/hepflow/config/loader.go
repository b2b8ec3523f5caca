package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadJob reads a job file, auto-detecting format by extension, and
// validates it. Supported extensions: .yaml, .yml, .json.
//
// ${NAME} placeholders are expanded from the environment before parsing.
func LoadJob(path string) (Job, error) {
	return LoadJobWithVars(path, nil)
}

// LoadJobWithVars is LoadJob with placeholder values taken from vars first
// and the environment second.
func LoadJobWithVars(path string, vars map[string]string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job file: %w", err)
	}
	text, err := Expand(string(data), Vars(vars))
	if err != nil {
		return Job{}, fmt.Errorf("job file %s: %w", path, err)
	}

	var job Job
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		job, err = FromYAML([]byte(text))
	case ".json":
		job, err = FromJSON([]byte(text))
	default:
		return Job{}, fmt.Errorf("unsupported job file extension: %s", ext)
	}
	if err != nil {
		return Job{}, err
	}

	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// FromYAML parses a YAML job description. Unknown keys are rejected.
func FromYAML(data []byte) (Job, error) {
	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return Job{}, fmt.Errorf("parse yaml: %w", err)
	}
	return job, nil
}

// FromJSON parses a JSON job description. Unknown keys are rejected.
func FromJSON(data []byte) (Job, error) {
	var job Job
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&job); err != nil {
		return Job{}, fmt.Errorf("parse json: %w", err)
	}
	return job, nil
}
