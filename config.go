package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// yamlConfig is a kong.ConfigurationLoader for YAML files. Keys are flag names;
// "release-line" and "release_line" are both accepted.
func yamlConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]interface{}{}
	err := yaml.NewDecoder(r).Decode(&values)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		for _, name := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
			raw, ok := values[name]
			if !ok || raw == nil {
				continue
			}
			switch v := raw.(type) {
			case map[string]interface{}, []interface{}:
				return nil, fmt.Errorf("config key %q must be a scalar", name)
			case string:
				return v, nil
			default:
				return fmt.Sprint(v), nil
			}
		}
		return nil, nil
	}
	return f, nil
}
