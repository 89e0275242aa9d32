package analyzer

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed rector.php.tmpl
var rectorTemplate string

var rectorConfig = template.Must(template.New("rector.php").Funcs(template.FuncMap{
	"php":   phpString,
	"deref": func(n *int) int { return *n },
}).Parse(rectorTemplate))

// phpString renders s as a single-quoted PHP literal.
func phpString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// RenderRectorConfig renders plan as a rector.php file.
func RenderRectorConfig(plan *RectorPlan) ([]byte, error) {
	var buf bytes.Buffer
	if err := rectorConfig.Execute(&buf, plan); err != nil {
		return nil, fmt.Errorf("render rector config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteRectorConfig renders plan into a temporary file and returns its path
// together with a function that removes it.
func WriteRectorConfig(plan *RectorPlan) (path string, cleanup func(), err error) {
	data, err := RenderRectorConfig(plan)
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp("", "pqs-rector-*.php")
	if err != nil {
		return "", nil, fmt.Errorf("create rector config: %w", err)
	}
	cleanup = func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write rector config: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write rector config: %w", err)
	}
	return f.Name(), cleanup, nil
}
