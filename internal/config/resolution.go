package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dkoosis/pqs/pkg/semver"
)

// Source names the layer a resolved value came from.
//
// Priority order (highest to lowest):
//  1. SourceCLI: --key or --key=value
//  2. SourceEnv: the key's PQS_* variable, when non-empty; booleans are
//     true on presence
//  3. SourceFile: the parameters section of pqs.yml
//  4. SourceDefault: built-in default
type Source string

const (
	SourceCLI     Source = "cli"
	SourceEnv     Source = "env"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// EnvFunc looks up an environment variable.
type EnvFunc func(key string) (string, bool)

// OSEnv reads the process environment.
var OSEnv EnvFunc = os.LookupEnv

// NoEnv reports every variable as unset.
func NoEnv(string) (string, bool) { return "", false }

// Inputs are the raw layers a Store is resolved from.
type Inputs struct {
	Args  []string
	Env   EnvFunc
	File  *File
	Scope Scope
}

// Resolution records how one key was decided.
type Resolution struct {
	Key    string
	Value  string
	Source Source
	// Origin is the flag, variable or file location the value came from.
	Origin string
}

// Store is the resolved, validated parameter set for one invocation.
// It is read-only once Resolve returns.
type Store struct {
	scope     Scope
	remaining []string
	trail     []Resolution

	include            []string
	level              *int
	sets               []string
	setLevels          map[string]int
	rules              []string
	withSymfony        string
	symfonyCodeQuality bool
	symfonyInjection   bool
	details            bool
	dryRun             bool
}

// Resolve merges the layers in Inputs into a Store. Every key takes its
// value from the highest priority layer that sets it; a value that fails
// validation aborts the whole resolution.
//
// ENV and file values for keys outside in.Scope are not adopted, so one
// configuration can serve both analyzers. Command-line keys outside the
// scope are rejected by SplitArguments.
func Resolve(in Inputs) (*Store, error) {
	env := in.Env
	if env == nil {
		env = NoEnv
	}
	file := in.File
	if file == nil {
		file = &File{}
	}
	scope := in.Scope
	if scope == "" {
		scope = ScopeRector
	}

	args, remaining, err := SplitArguments(in.Args, scope)
	if err != nil {
		return nil, err
	}
	cli := make(map[string]Argument, len(args))
	for _, a := range args {
		cli[a.Key.Name] = a
	}

	s := &Store{
		scope:     scope,
		remaining: remaining,
		setLevels: map[string]int{},
	}

	for _, key := range registry {
		res, ok := pick(key, cli, env, file, scope)
		if !ok {
			s.trail = append(s.trail, Resolution{Key: key.Name, Value: defaultText(key), Source: SourceDefault})
			continue
		}
		if err := s.adopt(key, res, file); err != nil {
			return nil, err
		}
		s.trail = append(s.trail, res)
	}
	return s, nil
}

func pick(key Key, cli map[string]Argument, env EnvFunc, file *File, scope Scope) (Resolution, bool) {
	if a, ok := cli[key.Name]; ok {
		return Resolution{Key: key.Name, Value: a.Value, Source: SourceCLI, Origin: a.Raw}, true
	}
	if !key.In(scope) {
		return Resolution{}, false
	}
	if v, ok := env(key.Env); ok && v != "" {
		return Resolution{Key: key.Name, Value: v, Source: SourceEnv, Origin: key.Env}, true
	}
	if p, ok := file.Parameter(key.Name); ok && p.Value != "" {
		return Resolution{
			Key:    key.Name,
			Value:  p.Value,
			Source: SourceFile,
			Origin: fmt.Sprintf("%s:%d", file.Path, p.Line),
		}, true
	}
	return Resolution{}, false
}

func defaultText(key Key) string {
	if key.Kind == KindBool {
		return "false"
	}
	return ""
}

func (s *Store) adopt(key Key, res Resolution, file *File) error {
	fail := func(value, reason string, allowed []string) error {
		return &ArgumentError{Key: key.Name, Value: value, Reason: reason, Allowed: allowed, Origin: res.Origin}
	}

	switch key.Name {
	case KeyInclude:
		list := SplitList(res.Value)
		if bad := firstOutside(list, file.PathKeys()); bad != "" {
			return fail(bad, "unknown path key", file.PathKeys())
		}
		s.include = list

	case KeyLevel:
		n, err := strconv.Atoi(strings.TrimSpace(res.Value))
		if err != nil || n < 0 {
			return fail(res.Value, "must be a non-negative integer", nil)
		}
		s.level = &n

	case KeySets:
		for _, entry := range SplitList(res.Value) {
			name, levelText, hasLevel := strings.Cut(entry, ":")
			if !isPreparedSet(name) {
				return fail(entry, "unknown set", preparedSets)
			}
			if !contains(s.sets, name) {
				s.sets = append(s.sets, name)
			}
			if !hasLevel {
				continue
			}
			if !isLevelSet(name) {
				return fail(entry, "set does not take a level", levelSets)
			}
			n, err := strconv.Atoi(levelText)
			if err != nil || n < 0 {
				return fail(entry, "set level must be a non-negative integer", nil)
			}
			s.setLevels[name] = n
		}

	case KeyRules:
		list := SplitList(res.Value)
		for _, entry := range list {
			if strings.Contains(entry, ":") {
				return fail(entry, "rule keys do not take a level or constraint suffix", file.RuleKeys())
			}
		}
		if bad := firstOutside(list, file.RuleKeys()); bad != "" {
			return fail(bad, "unknown rule key", file.RuleKeys())
		}
		s.rules = list

	case KeyWithSymfony:
		v := strings.TrimSpace(res.Value)
		if !contains(symfonyVersions, v) {
			return fail(res.Value, "unsupported Symfony version", symfonyVersions)
		}
		s.withSymfony = v

	default:
		// A set PQS_* variable switches its flag on whatever it holds.
		b := true
		if res.Source != SourceEnv {
			var err error
			if b, err = parseBool(key, res.Value, res.Origin); err != nil {
				return err
			}
		}
		switch key.Name {
		case KeyWithSymfonyCodeQuality:
			s.symfonyCodeQuality = b
		case KeyWithSymfonyConstructorInjection:
			s.symfonyInjection = b
		case KeyDetails:
			s.details = b
		case KeyDryRun:
			s.dryRun = b
		}
	}
	return nil
}

func firstOutside(list, allowed []string) string {
	for _, item := range list {
		if !contains(allowed, item) {
			return item
		}
	}
	return ""
}

// Scope returns the analyzer the store was resolved for.
func (s *Store) Scope() Scope { return s.scope }

// Remaining returns the arguments forwarded to the analyzer.
func (s *Store) Remaining() []string { return append([]string(nil), s.remaining...) }

// Include returns the selected paths-included keys; empty means all.
func (s *Store) Include() []string { return append([]string(nil), s.include...) }

// Level returns the analyzer level, if one was set.
func (s *Store) Level() (int, bool) {
	if s.level == nil {
		return 0, false
	}
	return *s.level, true
}

// Sets returns the prepared sets named in --sets, in the order given.
func (s *Store) Sets() []string { return append([]string(nil), s.sets...) }

// PreparedSet reports whether a prepared set is switched on. A set given a
// level is handled by its level and reports false here. "all" switches on
// every other set.
func (s *Store) PreparedSet(name string) (bool, error) {
	if !isPreparedSet(name) {
		return false, &ArgumentError{Key: KeySets, Value: name, Reason: "unknown set", Allowed: preparedSets}
	}
	if _, hasLevel := s.setLevels[name]; hasLevel {
		return false, nil
	}
	if contains(s.sets, SetAll) {
		return true, nil
	}
	return contains(s.sets, name), nil
}

// PreparedSetLevel returns the level given to a set, if any.
func (s *Store) PreparedSetLevel(name string) (int, bool) {
	n, ok := s.setLevels[name]
	return n, ok
}

// Rules returns the selected rules-included keys.
func (s *Store) Rules() []string { return append([]string(nil), s.rules...) }

// HasRules reports whether an explicit rule selection was made.
func (s *Store) HasRules() bool { return len(s.rules) > 0 }

// WithSymfony returns the Symfony version token, or "".
func (s *Store) WithSymfony() string { return s.withSymfony }

// Framework returns the Symfony version as a comparable version, or nil.
func (s *Store) Framework() *semver.Version {
	if s.withSymfony == "" {
		return nil
	}
	v, err := semver.ParseShort(s.withSymfony)
	if err != nil {
		return nil
	}
	return &v
}

// SymfonyCodeQuality reports --with-symfony-code-quality.
func (s *Store) SymfonyCodeQuality() bool { return s.symfonyCodeQuality }

// SymfonyConstructorInjection reports --with-symfony-constructor-injection.
func (s *Store) SymfonyConstructorInjection() bool { return s.symfonyInjection }

// Details reports --details.
func (s *Store) Details() bool { return s.details }

// DryRun reports --dry-run.
func (s *Store) DryRun() bool { return s.dryRun }

// Source returns the layer that decided key.
func (s *Store) Source(key string) Source {
	for _, r := range s.trail {
		if r.Key == key {
			return r.Source
		}
	}
	return SourceDefault
}

// Trail returns one Resolution per registry key, in registry order.
func (s *Store) Trail() []Resolution { return append([]Resolution(nil), s.trail...) }
