package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvFilenames contains the environment file names searched in order.
var EnvFilenames = []string{
	"restcheck.env.yaml",
	"restcheck.env.yml",
	".restcheck.env.yaml",
}

// Environment is one named variable set from an environment file.
type Environment struct {
	Name      string
	Variables map[string]string
}

// LoadEnvironment loads the named variable set from the directory's
// environment file. A missing file yields an empty environment; a
// missing environment name inside an existing file is an error.
func LoadEnvironment(dir, name string) (*Environment, error) {
	env := &Environment{Name: name, Variables: make(map[string]string)}
	if name == "" {
		return env, nil
	}

	path := findEnvFile(dir)
	if path == "" {
		return env, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment file: %w", err)
	}

	var file map[string]map[string]string
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	vars, ok := file[name]
	if !ok {
		return nil, fmt.Errorf("environment %q not defined in %s", name, path)
	}
	for k, v := range vars {
		env.Variables[k] = v
	}
	return env, nil
}

func findEnvFile(dir string) string {
	for _, filename := range EnvFilenames {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadSystemEnv collects OS environment variables carrying the given
// prefix, with the prefix stripped.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// MergeVariables overlays the sources left to right.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
