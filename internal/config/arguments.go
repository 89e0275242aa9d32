package config

import (
	"strconv"
	"strings"
)

// Scope is the analyzer an invocation drives.
type Scope string

const (
	ScopeRector  Scope = "rector"
	ScopePHPStan Scope = "phpstan"
)

// Kind is the value type of a parameter key.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindList
	KindBool
)

// Parameter key names.
const (
	KeyInclude                         = "include"
	KeyLevel                           = "level"
	KeySets                            = "sets"
	KeyRules                           = "rules"
	KeyWithSymfony                     = "with-symfony"
	KeyWithSymfonyCodeQuality          = "with-symfony-code-quality"
	KeyWithSymfonyConstructorInjection = "with-symfony-constructor-injection"
	KeyDetails                         = "details"
	KeyDryRun                          = "dry-run"
)

// Key describes one recognized parameter.
type Key struct {
	Name   string
	Env    string
	Kind   Kind
	Scopes []Scope
}

// Flag returns the command-line spelling of the key.
func (k Key) Flag() string { return "--" + k.Name }

// In reports whether the key applies to scope s.
func (k Key) In(s Scope) bool { return containsScope(k.Scopes, s) }

func containsScope(scopes []Scope, s Scope) bool {
	for _, sc := range scopes {
		if sc == s {
			return true
		}
	}
	return false
}

var (
	bothScopes = []Scope{ScopeRector, ScopePHPStan}
	rectorOnly = []Scope{ScopeRector}
)

var registry = []Key{
	{Name: KeyInclude, Env: "PQS_INCLUDE", Kind: KindList, Scopes: bothScopes},
	{Name: KeyLevel, Env: "PQS_LEVEL", Kind: KindInt, Scopes: bothScopes},
	{Name: KeySets, Env: "PQS_SETS", Kind: KindList, Scopes: rectorOnly},
	{Name: KeyRules, Env: "PQS_RULES", Kind: KindList, Scopes: rectorOnly},
	{Name: KeyWithSymfony, Env: "PQS_WITH_SYMFONY", Kind: KindString, Scopes: rectorOnly},
	{Name: KeyWithSymfonyCodeQuality, Env: "PQS_WITH_SYMFONY_CODE_QUALITY", Kind: KindBool, Scopes: rectorOnly},
	{Name: KeyWithSymfonyConstructorInjection, Env: "PQS_WITH_SYMFONY_CONSTRUCTOR_INJECTION", Kind: KindBool, Scopes: rectorOnly},
	{Name: KeyDetails, Env: "PQS_DETAILS", Kind: KindBool, Scopes: bothScopes},
	{Name: KeyDryRun, Env: "PQS_DRY_RUN", Kind: KindBool, Scopes: bothScopes},
}

// Keys returns the registry in resolution order.
func Keys() []Key {
	out := make([]Key, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a key by name.
func Lookup(name string) (Key, bool) {
	for _, k := range registry {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// KeyNames returns every key name in registry order.
func KeyNames() []string {
	out := make([]string, 0, len(registry))
	for _, k := range registry {
		out = append(out, k.Name)
	}
	return out
}

func keyNamesIn(s Scope) []string {
	var out []string
	for _, k := range registry {
		if k.In(s) {
			out = append(out, k.Name)
		}
	}
	return out
}

// Argument is one consumed command-line parameter.
type Argument struct {
	Key   Key
	Value string
	Raw   string
}

// SplitArguments separates the parameters pqs understands from the ones the
// analyzer receives. It does not modify raw.
//
// Scanning stops at a literal "--"; everything after it is forwarded. Single
// dash options and positional arguments are forwarded. A double dash option
// that is not a registry key, or whose key does not apply to scope, is
// rejected. Valued keys need "--key=value"; boolean keys accept "--key" or
// "--key=<bool>".
func SplitArguments(raw []string, scope Scope) (consumed []Argument, remaining []string, err error) {
	remaining = make([]string, 0, len(raw))
	for i, arg := range raw {
		if arg == "--" {
			remaining = append(remaining, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") {
			remaining = append(remaining, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		key, ok := Lookup(name)
		if !ok {
			return nil, nil, &ArgumentError{Key: name, Reason: "unknown key", Allowed: keyNamesIn(scope), Origin: "command line"}
		}
		if !key.In(scope) {
			return nil, nil, &ArgumentError{
				Key:     name,
				Reason:  "not available for " + string(scope),
				Allowed: keyNamesIn(scope),
				Origin:  "command line",
			}
		}

		switch {
		case key.Kind == KindBool && !hasValue:
			value = "true"
		case key.Kind != KindBool && !hasValue:
			return nil, nil, &ArgumentError{Key: name, Reason: "requires a value: " + key.Flag() + "=<value>", Origin: "command line"}
		}

		consumed = append(consumed, Argument{Key: key, Value: value, Raw: arg})
	}
	return consumed, remaining, nil
}

// SplitList splits a comma separated value, trimming entries, dropping
// empty ones and keeping the first occurrence of each.
func SplitList(value string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func parseBool(key Key, value, origin string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, &ArgumentError{
			Key:     key.Name,
			Value:   value,
			Reason:  "not a boolean",
			Allowed: []string{"true", "false", "1", "0"},
			Origin:  origin,
		}
	}
	return b, nil
}
