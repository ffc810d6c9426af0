// Package config loads flag values for the CLI from a YAML file.
//
// Top-level keys match global flag names. Keys nested under a command name
// apply to that command's flags and take precedence:
//
//	server: http://busser.local:3000
//	timeout: 10s
//	dashboard:
//	  heartbeat: true
//	  interval: 2s
//
// Dashes and underscores in key names are interchangeable.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a configuration file.
const DefaultPath = "~/.openbusser/config.yaml"

// YAMLLoader is a kong.ConfigurationLoader for YAML documents.
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}

	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode yaml configuration: %w", err)
	}

	var resolver kong.ResolverFunc = func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			path := commandPath(parent.Command)
			if v, ok := lookup(values, append(path, flag.Name)); ok {
				return v, nil
			}
		}

		if v, ok := lookup(values, []string{flag.Name}); ok {
			return v, nil
		}

		return nil, nil
	}

	return resolver, nil
}

func commandPath(node *kong.Node) []string {
	var path []string
	for n := node; n != nil && n.Type == kong.CommandNode; n = n.Parent {
		path = append([]string{n.Name}, path...)
	}
	return path
}

func lookup(values map[string]any, path []string) (any, bool) {
	current := values
	for i, key := range path {
		v, ok := get(current, key)
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			// a table is a command section, not a flag value
			if _, isMap := v.(map[string]any); isMap {
				return nil, false
			}
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

func get(values map[string]any, key string) (any, bool) {
	for _, k := range []string{key, strings.ReplaceAll(key, "-", "_")} {
		if v, ok := values[k]; ok {
			return v, true
		}
	}
	return nil, false
}
