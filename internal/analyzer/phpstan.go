package analyzer

import (
	"strconv"

	"github.com/dkoosis/pqs/internal/config"
)

// PHPStanPlan is the phpstan command line derived from the store.
type PHPStanPlan struct {
	Paths []string
	Level *int
	// Pruned lists included paths dropped because they match paths-excluded.
	Pruned []string
	Args   []string
}

// BuildPHPStan selects the included paths and level. PHPStan has no
// command-line exclude option, so included paths matching a paths-excluded
// pattern are left out instead.
func BuildPHPStan(store *config.Store, file *config.File) (*PHPStanPlan, error) {
	catalog, err := file.PathCatalog()
	if err != nil {
		return nil, err
	}
	selected := catalog.Filtered(store.Include())
	plan := &PHPStanPlan{
		Paths: catalog.Prune(selected),
		Args:  store.Remaining(),
	}
	for _, p := range selected {
		if catalog.IsExcluded(p) {
			plan.Pruned = append(plan.Pruned, p)
		}
	}
	if level, ok := store.Level(); ok {
		plan.Level = &level
	}
	return plan, nil
}

// Arguments returns the phpstan arguments after "analyse".
func (p *PHPStanPlan) Arguments() []string {
	args := append([]string(nil), p.Paths...)
	if p.Level != nil {
		args = append(args, "--level", strconv.Itoa(*p.Level))
	}
	return append(args, p.Args...)
}
