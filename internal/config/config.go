package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/pqs/pkg/paths"
	"github.com/dkoosis/pqs/pkg/rules"
)

// Environment variables read outside the parameter registry.
const (
	EnvConfig = "PQS_CONFIG"
	EnvDebug  = "PQS_DEBUG"
)

// DistName is the name reported for the built-in configuration.
const DistName = "pqs.yml.dist"

//go:embed pqs.yml.dist
var distConfig []byte

// KeyValue is one entry of an order-preserving YAML map.
type KeyValue struct {
	Key   string
	Value string
}

// Parameter is a file-default value for a registry key.
type Parameter struct {
	Key   string
	Value string
	Line  int
}

// File is the decoded pqs.yml.
type File struct {
	Path          string
	PathsIncluded []KeyValue
	PathsExcluded []string
	RulesIncluded []KeyValue
	RulesExcluded []string
	Parameters    []Parameter
}

// PathKeys returns the keys declared under paths-included.
func (f *File) PathKeys() []string { return keysOf(f.PathsIncluded) }

// RuleKeys returns the keys declared under rules-included.
func (f *File) RuleKeys() []string { return keysOf(f.RulesIncluded) }

func keysOf(kvs []KeyValue) []string {
	out := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, kv.Key)
	}
	return out
}

// Parameter returns the file-default for key.
func (f *File) Parameter(key string) (Parameter, bool) {
	for _, p := range f.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}

// PathCatalog builds the path catalog declared by the file.
func (f *File) PathCatalog() (*paths.Catalog, error) {
	entries := make([]paths.Entry, 0, len(f.PathsIncluded))
	for _, kv := range f.PathsIncluded {
		entries = append(entries, paths.Entry{Key: kv.Key, Path: kv.Value})
	}
	c, err := paths.New(entries, f.PathsExcluded)
	if err != nil {
		return nil, &FileError{Path: f.Path, Msg: "paths-excluded", Err: err}
	}
	return c, nil
}

// RuleCatalog loads rules-excluded. Malformed constraints fail the load.
func (f *File) RuleCatalog() (*rules.Catalog, error) {
	c, err := rules.Load(f.RulesExcluded)
	if err != nil {
		return nil, fmt.Errorf("%s: rules-excluded: %w", f.Path, err)
	}
	return c, nil
}

// IncludedRules returns the keyed rules selectable with --rules.
func (f *File) IncludedRules() *rules.Included {
	entries := make([]rules.Entry, 0, len(f.RulesIncluded))
	for _, kv := range f.RulesIncluded {
		entries = append(entries, rules.Entry{Key: kv.Key, Rule: kv.Value})
	}
	return rules.NewIncluded(entries)
}

// Locate returns the configuration file for a project rooted at dir.
//
// PQS_CONFIG, when set, names the file and must exist. Otherwise the
// candidates are config/pqs.yml, pqs.yml and the user config directory
// ($XDG_CONFIG_HOME/pqs/pqs.yml). ErrConfigNotFound means none exists.
func Locate(dir string, env EnvFunc) (string, error) {
	if env == nil {
		env = NoEnv
	}
	if explicit, ok := env(EnvConfig); ok && explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(dir, explicit)
		}
		if fileExists(explicit) {
			return explicit, nil
		}
		return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
	}

	candidates := []string{
		filepath.Join(dir, "config", "pqs.yml"),
		filepath.Join(dir, "pqs.yml"),
	}
	if userDir := userConfigDir(env); userDir != "" {
		candidates = append(candidates, filepath.Join(userDir, "pqs", "pqs.yml"))
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, candidates[0])
}

func userConfigDir(env EnvFunc) string {
	if xdg, ok := env("XDG_CONFIG_HOME"); ok && xdg != "" {
		return xdg
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load locates and decodes the configuration for dir, falling back to the
// built-in distribution file. An explicit PQS_CONFIG that does not exist is
// an error rather than a fallback.
func Load(dir string, env EnvFunc) (*File, error) {
	path, err := Locate(dir, env)
	switch {
	case err == nil:
		return LoadFile(path)
	case errors.Is(err, ErrConfigNotFound) && !explicitConfig(env):
		return Parse(distConfig, DistName)
	default:
		return nil, err
	}
}

func explicitConfig(env EnvFunc) bool {
	if env == nil {
		return false
	}
	v, ok := env(EnvConfig)
	return ok && v != ""
}

// LoadFile reads and decodes the file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a pqs.yml document. name is used in error messages and
// recorded as File.Path.
func Parse(data []byte, name string) (*File, error) {
	f := &File{Path: name}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FileError{Path: name, Msg: "invalid YAML", Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if isNull(root) {
		return f, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, shapeError(name, root, "top level must be a map")
	}

	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if seen[key.Value] {
			return nil, shapeError(name, key, fmt.Sprintf("duplicate section %q", key.Value))
		}
		seen[key.Value] = true

		var err error
		switch key.Value {
		case "paths-included":
			f.PathsIncluded, err = decodeMap(name, key.Value, value)
		case "paths-excluded":
			f.PathsExcluded, err = decodeList(name, key.Value, value)
		case "rules-included":
			f.RulesIncluded, err = decodeMap(name, key.Value, value)
		case "rules-excluded":
			f.RulesExcluded, err = decodeList(name, key.Value, value)
		case "parameters":
			f.Parameters, err = decodeParameters(name, value)
		default:
			err = shapeError(name, key, fmt.Sprintf("unknown section %q", key.Value))
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func decodeMap(file, section string, n *yaml.Node) ([]KeyValue, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, shapeError(file, n, section+" must be a map of key: value")
	}
	out := make([]KeyValue, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode || isNull(v) {
			return nil, shapeError(file, v, fmt.Sprintf("%s.%s must be a string", section, k.Value))
		}
		out = append(out, KeyValue{Key: k.Value, Value: v.Value})
	}
	return out, nil
}

func decodeList(file, section string, n *yaml.Node) ([]string, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, shapeError(file, n, section+" must be a list")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, shapeError(file, item, section+" entries must be strings")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func decodeParameters(file string, n *yaml.Node) ([]Parameter, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, shapeError(file, n, "parameters must be a map")
	}
	out := make([]Parameter, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if _, ok := Lookup(k.Value); !ok {
			return nil, &ArgumentError{
				Key:     k.Value,
				Reason:  "unknown parameter",
				Allowed: KeyNames(),
				Origin:  fmt.Sprintf("%s:%d", file, k.Line),
			}
		}

		var value string
		switch {
		case isNull(v):
		case v.Kind == yaml.ScalarNode:
			value = v.Value
		case v.Kind == yaml.SequenceNode:
			items := make([]string, 0, len(v.Content))
			for _, item := range v.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, shapeError(file, item, "parameters."+k.Value+" entries must be scalars")
				}
				items = append(items, item.Value)
			}
			value = strings.Join(items, ",")
		default:
			return nil, shapeError(file, v, "parameters."+k.Value+" must be a scalar or a list")
		}
		out = append(out, Parameter{Key: k.Value, Value: value, Line: k.Line})
	}
	return out, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func shapeError(file string, n *yaml.Node, msg string) error {
	return &FileError{Path: file, Line: n.Line, Msg: msg}
}
