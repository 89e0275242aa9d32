// Package report prints the run overviews, the Rector result summary and
// the configuration listings.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/pqs/internal/config"
	"github.com/dkoosis/pqs/pkg/semver"
)

const (
	separatorWidth = 50
	labelWidth     = 36
	setLabelWidth  = 23
)

var titler = cases.Title(language.English)

// Reporter writes human readable output. Each overview is printed at most
// once per Reporter.
type Reporter struct {
	w       io.Writer
	theme   Theme
	printed map[string]bool
}

// New returns a Reporter writing to w.
func New(w io.Writer, theme Theme) *Reporter {
	return &Reporter{w: w, theme: theme, printed: map[string]bool{}}
}

// SetState is one line of the prepared set detail block.
type SetState struct {
	Name    string
	Enabled bool
	Level   *int
}

func (s SetState) String() string {
	switch {
	case s.Level != nil:
		return fmt.Sprintf("Level: %d", *s.Level)
	case s.Enabled:
		return "Active"
	default:
		return "Not active"
	}
}

// RectorOverview is what the Rector overview shows.
type RectorOverview struct {
	PHP                         *semver.Version
	Include                     []string
	Level                       *int
	Sets                        []string
	Rules                       []string
	Symfony                     string
	SymfonyCodeQuality          bool
	SymfonyConstructorInjection bool
	Details                     bool
	DryRun                      bool
	PreparedSets                []SetState
}

// NewRectorOverview collects the overview from a resolved store. php is the
// project PHP version, nil when unknown.
func NewRectorOverview(store *config.Store, php *semver.Version) RectorOverview {
	o := RectorOverview{
		PHP:                         php,
		Include:                     store.Include(),
		Rules:                       store.Rules(),
		Symfony:                     store.WithSymfony(),
		SymfonyCodeQuality:          store.SymfonyCodeQuality(),
		SymfonyConstructorInjection: store.SymfonyConstructorInjection(),
		Details:                     store.Details(),
		DryRun:                      store.DryRun(),
	}
	if level, ok := store.Level(); ok {
		o.Level = &level
	}
	for _, name := range config.PreparedSets() {
		if name == config.SetAll {
			continue
		}
		state := SetState{Name: name}
		if level, ok := store.PreparedSetLevel(name); ok {
			state.Level = &level
		} else {
			state.Enabled, _ = store.PreparedSet(name)
		}
		if state.Enabled {
			o.Sets = append(o.Sets, name)
		}
		o.PreparedSets = append(o.PreparedSets, state)
	}
	return o
}

// PHPStanOverview is what the PHPStan overview shows.
type PHPStanOverview struct {
	PHP     *semver.Version // running interpreter
	Include []string
	Level   *int
	Details bool
	DryRun  bool
}

// NewPHPStanOverview collects the overview from a resolved store.
func NewPHPStanOverview(store *config.Store, php *semver.Version) PHPStanOverview {
	o := PHPStanOverview{
		PHP:     php,
		Include: store.Include(),
		Details: store.Details(),
		DryRun:  store.DryRun(),
	}
	if level, ok := store.Level(); ok {
		o.Level = &level
	}
	return o
}

// PrintRectorOverview prints the Rector overview and, with details on, the
// prepared set states. It reports false when the overview was already
// printed by r.
func (r *Reporter) PrintRectorOverview(o RectorOverview) (bool, error) {
	if r.printed["rector"] {
		return false, nil
	}
	r.printed["rector"] = true

	var sb strings.Builder
	sb.WriteString("\n")
	r.heading(&sb, titler.String("rector")+" Overview")
	r.line(&sb, labelWidth, "With php version", versionText(o.PHP, true))
	r.separator(&sb, "-")
	r.line(&sb, labelWidth, "Included paths", listOr(o.Include, "all"))
	r.line(&sb, labelWidth, "Level", levelOr(o.Level, "N/A"))
	r.line(&sb, labelWidth, "Sets", listOr(o.Sets, "N/A"))
	r.line(&sb, labelWidth, "Included rules", listOr(o.Rules, "N/A"))
	r.separator(&sb, "-")
	symfony := "N/A"
	if o.Symfony != "" {
		symfony = o.Symfony + ".x"
	}
	r.line(&sb, labelWidth, "With symfony version", symfony)
	r.line(&sb, labelWidth, "With symfony code quality", yesNo(o.SymfonyCodeQuality))
	r.line(&sb, labelWidth, "With symfony constructor injection", yesNo(o.SymfonyConstructorInjection))
	r.separator(&sb, "-")
	r.line(&sb, labelWidth, "Show details", titler.String(yesNo(o.Details)))
	r.line(&sb, labelWidth, "Dry run mode", titler.String(yesNo(o.DryRun)))
	r.separator(&sb, "=")

	if o.Details {
		sb.WriteString("\n")
		r.heading(&sb, "Prepared Set Details")
		for _, s := range o.PreparedSets {
			r.line(&sb, setLabelWidth, s.Name, s.String())
		}
		r.separator(&sb, "=")
	}
	sb.WriteString("\n\n")

	_, err := io.WriteString(r.w, sb.String())
	return true, err
}

// PrintPHPStanOverview prints the PHPStan overview once per Reporter.
func (r *Reporter) PrintPHPStanOverview(o PHPStanOverview) (bool, error) {
	if r.printed["phpstan"] {
		return false, nil
	}
	r.printed["phpstan"] = true

	var sb strings.Builder
	sb.WriteString("\n")
	r.heading(&sb, "I) PHPStan Overview")
	r.line(&sb, labelWidth, "Running PHP version", versionText(o.PHP, false))
	r.separator(&sb, "-")
	r.line(&sb, labelWidth, "Included paths", listOr(o.Include, "all"))
	r.line(&sb, labelWidth, "Level", levelOr(o.Level, "max"))
	r.separator(&sb, "-")
	r.line(&sb, labelWidth, "Show details", titler.String(yesNo(o.Details)))
	r.line(&sb, labelWidth, "Dry run mode", titler.String(yesNo(o.DryRun)))
	r.separator(&sb, "=")
	sb.WriteString("\n\n")

	_, err := io.WriteString(r.w, sb.String())
	return true, err
}

// ResultMessage summarizes a Rector run. Changed files take precedence over
// changeable ones.
func ResultMessage(changed, changeable int) string {
	switch {
	case changed > 0:
		return fmt.Sprintf("Total %d %s changed.", changed, plural(changed, "file", "files"))
	case changeable > 0:
		return fmt.Sprintf("Total %d %s changeable.", changeable, plural(changeable, "file", "files"))
	default:
		return "No file changeable or changed."
	}
}

// PrintResult prints the Rector result summary.
func (r *Reporter) PrintResult(changed, changeable int) error {
	style := r.theme.Muted
	switch {
	case changed > 0:
		style = r.theme.Success
	case changeable > 0:
		style = r.theme.Warning
	}

	var sb strings.Builder
	sb.WriteString("\n")
	r.separator(&sb, "=")
	sb.WriteString(style.Render(ResultMessage(changed, changeable)))
	sb.WriteString("\n")
	r.separator(&sb, "=")
	sb.WriteString("\n\n")

	_, err := io.WriteString(r.w, sb.String())
	return err
}

// PrintRules lists the rule IDs excluded for the given versions.
func (r *Reporter) PrintRules(php, framework *semver.Version, ids []string) error {
	var sb strings.Builder
	r.heading(&sb, "Excluded Rules")
	r.line(&sb, labelWidth, "PHP version", shortOr(php))
	r.line(&sb, labelWidth, "Symfony version", shortOr(framework))
	r.separator(&sb, "-")
	for _, id := range ids {
		sb.WriteString(r.theme.Primary.Render(id))
		sb.WriteString("\n")
	}
	r.separator(&sb, "-")
	fmt.Fprintf(&sb, "Total %d %s excluded.\n", len(ids), plural(len(ids), "rule", "rules"))
	r.separator(&sb, "=")

	_, err := io.WriteString(r.w, sb.String())
	return err
}

// PrintTrail lists every parameter with the layer that decided it.
func (r *Reporter) PrintTrail(configPath string, scope config.Scope, trail []config.Resolution) error {
	keyWidth, valueWidth := 0, 0
	for _, res := range trail {
		keyWidth = max(keyWidth, runewidth.StringWidth(res.Key))
		valueWidth = max(valueWidth, runewidth.StringWidth(displayValue(res.Value)))
	}

	var sb strings.Builder
	r.heading(&sb, "Resolved Parameters")
	r.line(&sb, labelWidth, "Configuration file", configPath)
	r.line(&sb, labelWidth, "Analyzer", string(scope))
	r.separator(&sb, "-")
	for _, res := range trail {
		sb.WriteString(runewidth.FillRight(res.Key, keyWidth))
		sb.WriteString("  ")
		sb.WriteString(r.theme.Primary.Render(runewidth.FillRight(displayValue(res.Value), valueWidth)))
		sb.WriteString("  ")
		source := string(res.Source)
		if res.Origin != "" {
			source += " (" + res.Origin + ")"
		}
		sb.WriteString(r.theme.Muted.Render(source))
		sb.WriteString("\n")
	}
	r.separator(&sb, "=")

	_, err := io.WriteString(r.w, sb.String())
	return err
}

func (r *Reporter) heading(sb *strings.Builder, title string) {
	r.separator(sb, "=")
	sb.WriteString(r.theme.Bold.Render(title))
	sb.WriteString("\n")
	r.separator(sb, "=")
}

func (r *Reporter) separator(sb *strings.Builder, ch string) {
	sb.WriteString(r.theme.Muted.Render(strings.Repeat(ch, separatorWidth)))
	sb.WriteString("\n")
}

func (r *Reporter) line(sb *strings.Builder, width int, label, value string) {
	sb.WriteString(padLabel(label+":", width))
	sb.WriteString(value)
	sb.WriteString("\n")
}

// padLabel pads label to width columns, always leaving one space.
func padLabel(label string, width int) string {
	if runewidth.StringWidth(label) >= width {
		return label + " "
	}
	return runewidth.FillRight(label, width)
}

func versionText(v *semver.Version, wildcardPatch bool) string {
	if v == nil {
		return "unknown"
	}
	text := v.String()
	if wildcardPatch {
		text = v.Short() + ".x"
	}
	return fmt.Sprintf("%s (%.1f)", text, v.Number())
}

func shortOr(v *semver.Version) string {
	if v == nil {
		return "N/A"
	}
	return v.Short()
}

func listOr(list []string, empty string) string {
	if len(list) == 0 {
		return empty
	}
	return strings.Join(list, ", ")
}

func levelOr(level *int, empty string) string {
	if level == nil {
		return empty
	}
	return fmt.Sprintf("%d", *level)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func displayValue(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
