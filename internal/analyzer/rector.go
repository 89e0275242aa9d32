// Package analyzer turns a resolved parameter store into the inputs of the
// wrapped analyzers: a rector.php configuration and a phpstan command line.
package analyzer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dkoosis/pqs/internal/config"
	"github.com/dkoosis/pqs/pkg/semver"
)

// ContainerXML is the Symfony debug container Rector reads service types from.
const ContainerXML = "var/cache/dev/App_KernelDevDebugContainer.xml"

// PreparedSet is one withPreparedSets argument.
type PreparedSet struct {
	Name    string
	Enabled bool
}

// SetLevel is a prepared set applied up to a level.
type SetLevel struct {
	Name   string
	Method string // RectorConfigBuilder method, e.g. "withDeadCodeLevel"
	Level  int
}

var setLevelMethods = map[string]string{
	config.SetDeadCode:         "withDeadCodeLevel",
	config.SetCodeQuality:      "withCodeQualityLevel",
	config.SetCodingStyle:      "withCodingStyleLevel",
	config.SetTypeDeclarations: "withTypeCoverageLevel",
}

// RectorPlan is everything the generated rector.php and the rector command
// line carry.
type RectorPlan struct {
	// Paths are absolute paths handed to withPaths.
	Paths []string
	// Skip lists excluded paths first, then excluded rule IDs.
	Skip []string
	// Rules is set only for an explicit --rules selection. Such a plan
	// carries no level, prepared sets or Symfony sets.
	Rules []string

	Level   *int
	PHPSets bool

	PreparedSets []PreparedSet
	SetLevels    []SetLevel

	SymfonySets         []string
	SymfonyContainerXML string

	// Exclusions is the resolved rule exclusion list, also part of Skip.
	Exclusions []string
	// Args are forwarded to rector after its own options.
	Args []string
}

// BuildRector assembles the Rector plan for a project rooted at dir. php is
// the project PHP version; the framework version comes from --with-symfony.
func BuildRector(store *config.Store, file *config.File, php *semver.Version, dir string) (*RectorPlan, error) {
	pathCatalog, err := file.PathCatalog()
	if err != nil {
		return nil, err
	}

	plan := &RectorPlan{
		Paths: absolute(dir, pathCatalog.Filtered(store.Include())),
		Args:  forwardedArgs(store),
	}
	excludedPaths := absolute(dir, pathCatalog.Excluded())

	if store.HasRules() {
		plan.Rules = file.IncludedRules().Filtered(store.Rules())
		plan.Skip = excludedPaths
		return plan, nil
	}

	ruleCatalog, err := file.RuleCatalog()
	if err != nil {
		return nil, err
	}
	plan.Exclusions = ruleCatalog.ResolveExclusions(php, store.Framework())
	plan.Skip = append(excludedPaths, plan.Exclusions...)

	if level, ok := store.Level(); ok {
		plan.Level = &level
	} else {
		plan.PHPSets = true
	}

	for _, name := range config.PreparedSets() {
		if name == config.SetAll {
			continue
		}
		enabled, err := store.PreparedSet(name)
		if err != nil {
			return nil, err
		}
		plan.PreparedSets = append(plan.PreparedSets, PreparedSet{Name: name, Enabled: enabled})
	}
	for _, name := range config.LevelSets() {
		if level, ok := store.PreparedSetLevel(name); ok {
			plan.SetLevels = append(plan.SetLevels, SetLevel{Name: name, Method: setLevelMethods[name], Level: level})
		}
	}

	if v := store.WithSymfony(); v != "" {
		if xml := filepath.Join(dir, ContainerXML); fileExists(xml) {
			plan.SymfonyContainerXML = xml
		}
		plan.SymfonySets = append(plan.SymfonySets, SymfonySet(v))
		if store.SymfonyCodeQuality() {
			plan.SymfonySets = append(plan.SymfonySets, "SYMFONY_CODE_QUALITY")
		}
		if store.SymfonyConstructorInjection() {
			plan.SymfonySets = append(plan.SymfonySets, "SYMFONY_CONSTRUCTOR_INJECTION")
		}
	}
	return plan, nil
}

// SymfonySet returns the SymfonySetList constant for a version token:
// "6.4" becomes "SYMFONY_64".
func SymfonySet(version string) string {
	return "SYMFONY_" + strings.ReplaceAll(version, ".", "")
}

// EnabledSets returns the names of the switched-on prepared sets.
func (p *RectorPlan) EnabledSets() []string {
	var out []string
	for _, s := range p.PreparedSets {
		if s.Enabled {
			out = append(out, s.Name)
		}
	}
	return out
}

// forwardedArgs re-adds --dry-run, which the store consumed, for rector.
func forwardedArgs(store *config.Store) []string {
	args := store.Remaining()
	if store.DryRun() {
		for _, a := range args {
			if a == "--dry-run" {
				return args
			}
		}
		args = append(args, "--dry-run")
	}
	return args
}

func absolute(dir string, list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		if filepath.IsAbs(p) {
			out = append(out, p)
			continue
		}
		out = append(out, filepath.Join(dir, p))
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
