package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pqs/internal/config"
	"github.com/dkoosis/pqs/pkg/semver"
)

const projectConfig = `
paths-included:
  src: src
  tests: tests
  fixtures: tests/Fixture
paths-excluded:
  - var
  - tests/Fixture
rules-included:
  readonly: Rector\Php81\Rector\Property\ReadOnlyPropertyRector
  arrow: Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector
rules-excluded:
  - Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector
  - Rector\Php81\Rector\Property\ReadOnlyPropertyRector:php<8.1
  - Rector\Symfony\Symfony61\Rector\Class_\CommandPropertyToAttributeRector:symfony<6.1
parameters:
  details: true
`

func resolve(t *testing.T, scope config.Scope, args ...string) (*config.Store, *config.File) {
	t.Helper()
	file, err := config.Parse([]byte(projectConfig), "pqs.yml")
	require.NoError(t, err)
	store, err := config.Resolve(config.Inputs{Args: args, File: file, Scope: scope})
	require.NoError(t, err)
	return store, file
}

func version(t *testing.T, s string) *semver.Version {
	t.Helper()
	v := semver.MustParse(s)
	return &v
}

func TestBuildRector_Defaults(t *testing.T) {
	store, file := resolve(t, config.ScopeRector)

	plan, err := BuildRector(store, file, version(t, "8.0.0"), "/app")
	require.NoError(t, err)

	assert.Equal(t, []string{"/app/src", "/app/tests", "/app/tests/Fixture"}, plan.Paths)
	assert.Equal(t, []string{
		"/app/var",
		"/app/tests/Fixture",
		`Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector`,
		`Rector\Php81\Rector\Property\ReadOnlyPropertyRector`,
	}, plan.Skip)
	assert.Nil(t, plan.Level)
	assert.True(t, plan.PHPSets)
	assert.Empty(t, plan.EnabledSets())
	assert.Len(t, plan.PreparedSets, len(config.PreparedSets())-1)
	assert.Empty(t, plan.SymfonySets)
	assert.Empty(t, plan.Rules)
	assert.Empty(t, plan.Args)
}

func TestBuildRector_ExclusionsFollowVersions(t *testing.T) {
	store, file := resolve(t, config.ScopeRector, "--with-symfony=6.0")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.NoError(t, err)

	assert.Equal(t, []string{
		`Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector`,
		`Rector\Symfony\Symfony61\Rector\Class_\CommandPropertyToAttributeRector`,
	}, plan.Exclusions)
}

func TestBuildRector_IncludeSelectsPaths(t *testing.T) {
	store, file := resolve(t, config.ScopeRector, "--include=tests")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"/app/tests"}, plan.Paths)
}

func TestBuildRector_RulesSelection(t *testing.T) {
	store, file := resolve(t, config.ScopeRector, "--rules=arrow", "--level=5", "--sets=naming", "--with-symfony=7.0")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.NoError(t, err)

	assert.Equal(t, []string{`Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector`}, plan.Rules)
	assert.Equal(t, []string{"/app/var", "/app/tests/Fixture"}, plan.Skip)
	assert.Nil(t, plan.Level)
	assert.False(t, plan.PHPSets)
	assert.Empty(t, plan.PreparedSets)
	assert.Empty(t, plan.SymfonySets)
	assert.Empty(t, plan.Exclusions)
}

func TestBuildRector_SetsAndLevels(t *testing.T) {
	store, file := resolve(t, config.ScopeRector, "--level=3", "--sets=all,deadCode:2,typeDeclarations:7")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.NoError(t, err)

	require.NotNil(t, plan.Level)
	assert.Equal(t, 3, *plan.Level)
	assert.False(t, plan.PHPSets)

	enabled := plan.EnabledSets()
	assert.NotContains(t, enabled, config.SetDeadCode)
	assert.NotContains(t, enabled, config.SetTypeDeclarations)
	assert.Contains(t, enabled, config.SetCodeQuality)
	assert.Contains(t, enabled, config.SetSymfonyConfigs)

	want := []SetLevel{
		{Name: config.SetDeadCode, Method: "withDeadCodeLevel", Level: 2},
		{Name: config.SetTypeDeclarations, Method: "withTypeCoverageLevel", Level: 7},
	}
	if diff := cmp.Diff(want, plan.SetLevels); diff != "" {
		t.Errorf("SetLevels mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRector_Symfony(t *testing.T) {
	dir := t.TempDir()
	xml := filepath.Join(dir, ContainerXML)
	require.NoError(t, os.MkdirAll(filepath.Dir(xml), 0o755))
	require.NoError(t, os.WriteFile(xml, []byte("<container/>"), 0o644))

	store, file := resolve(t, config.ScopeRector,
		"--with-symfony=6.4", "--with-symfony-code-quality", "--with-symfony-constructor-injection=true")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"SYMFONY_64", "SYMFONY_CODE_QUALITY", "SYMFONY_CONSTRUCTOR_INJECTION"}, plan.SymfonySets)
	assert.Equal(t, xml, plan.SymfonyContainerXML)
}

func TestBuildRector_SymfonyWithoutContainer(t *testing.T) {
	store, file := resolve(t, config.ScopeRector, "--with-symfony=5.4")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"SYMFONY_54"}, plan.SymfonySets)
	assert.Empty(t, plan.SymfonyContainerXML)
}

func TestBuildRector_DryRunForwarded(t *testing.T) {
	store, file := resolve(t, config.ScopeRector, "--dry-run", "--", "--debug")

	plan, err := BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"--debug", "--dry-run"}, plan.Args)
}

func TestBuildRector_DryRunFromEnv(t *testing.T) {
	file, err := config.Parse([]byte(projectConfig), "pqs.yml")
	require.NoError(t, err)
	env := func(key string) (string, bool) {
		if key == "PQS_DRY_RUN" {
			return "1", true
		}
		return "", false
	}
	store, err := config.Resolve(config.Inputs{Env: env, File: file, Scope: config.ScopeRector})
	require.NoError(t, err)

	plan, err := BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"--dry-run"}, plan.Args)
}

func TestBuildRector_UnknownPHPVersion(t *testing.T) {
	store, file := resolve(t, config.ScopeRector)

	plan, err := BuildRector(store, file, nil, "/app")
	require.NoError(t, err)
	assert.Equal(t, []string{`Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector`}, plan.Exclusions)
}

func TestBuildRector_MalformedExclusion(t *testing.T) {
	file, err := config.Parse([]byte("rules-excluded:\n  - Foo:php8\n"), "pqs.yml")
	require.NoError(t, err)
	store, err := config.Resolve(config.Inputs{File: file, Scope: config.ScopeRector})
	require.NoError(t, err)

	_, err = BuildRector(store, file, version(t, "8.2.0"), "/app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pqs.yml")
}

func TestBuildPHPStan(t *testing.T) {
	store, file := resolve(t, config.ScopePHPStan, "--level=6", "--", "--memory-limit=1G")

	plan, err := BuildPHPStan(store, file)
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "tests"}, plan.Paths)
	assert.Equal(t, []string{"tests/Fixture"}, plan.Pruned)
	assert.Equal(t, []string{"src", "tests", "--level", "6", "--memory-limit=1G"}, plan.Arguments())
}

func TestBuildPHPStan_NoLevel(t *testing.T) {
	store, file := resolve(t, config.ScopePHPStan, "--include=src", "--dry-run")

	plan, err := BuildPHPStan(store, file)
	require.NoError(t, err)
	assert.Equal(t, []string{"src"}, plan.Arguments())
}

func TestRenderRectorConfig(t *testing.T) {
	level := 4
	plan := &RectorPlan{
		Paths: []string{"/app/src"},
		Skip:  []string{"/app/var", `Rector\Php74\Rector\Closure\ClosureToArrowFunctionRector`},
		Level: &level,
		PreparedSets: []PreparedSet{
			{Name: "deadCode", Enabled: false},
			{Name: "naming", Enabled: true},
		},
		SetLevels:           []SetLevel{{Name: "deadCode", Method: "withDeadCodeLevel", Level: 1}},
		SymfonySets:         []string{"SYMFONY_64"},
		SymfonyContainerXML: "/app/var/cache/dev/App_KernelDevDebugContainer.xml",
	}

	out, err := RenderRectorConfig(plan)
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "<?php\n"))
	assert.Contains(t, text, "    ->withPaths([\n        '/app/src',\n    ])")
	assert.Contains(t, text, `'Rector\\Php74\\Rector\\Closure\\ClosureToArrowFunctionRector',`)
	assert.Contains(t, text, "->withPhpLevel(4)")
	assert.NotContains(t, text, "withPhpSets")
	assert.NotContains(t, text, "withRules")
	assert.Contains(t, text, "->withPreparedSets(\n        deadCode: false,\n        naming: true\n    )")
	assert.Contains(t, text, "->withDeadCodeLevel(1)")
	assert.Contains(t, text, "->withSymfonyContainerXml('/app/var/cache/dev/App_KernelDevDebugContainer.xml')")
	assert.True(t, strings.HasSuffix(text, "        SymfonySetList::SYMFONY_64,\n    ]);\n"))
}

func TestRenderRectorConfig_RulesOnly(t *testing.T) {
	plan := &RectorPlan{
		Paths: []string{"/app/src"},
		Rules: []string{`Rector\Php81\Rector\Property\ReadOnlyPropertyRector`},
	}

	out, err := RenderRectorConfig(plan)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "->withRules([\n        'Rector\\\\Php81\\\\Rector\\\\Property\\\\ReadOnlyPropertyRector',\n    ]);")
	assert.NotContains(t, text, "withPreparedSets")
	assert.NotContains(t, text, "withPhp")
}

func TestRenderRectorConfig_PHPSets(t *testing.T) {
	out, err := RenderRectorConfig(&RectorPlan{PHPSets: true})
	require.NoError(t, err)
	assert.Contains(t, string(out), "    ->withPhpSets();\n")
}

func TestPHPString(t *testing.T) {
	assert.Equal(t, `'it\'s'`, phpString("it's"))
	assert.Equal(t, `'a\\b'`, phpString(`a\b`))
}

func TestWriteRectorConfig(t *testing.T) {
	path, cleanup, err := WriteRectorConfig(&RectorPlan{Paths: []string{"/app/src"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "'/app/src'")

	cleanup()
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCommands(t *testing.T) {
	rector := RectorCommand("", "/app", "/tmp/rector.php", &RectorPlan{Args: []string{"--dry-run"}})
	assert.Equal(t, "php", rector.Path)
	assert.Equal(t, []string{"/app/vendor/bin/rector", "process", "--ansi", "--config=/tmp/rector.php", "--dry-run"}, rector.Args)
	assert.Equal(t, "/app", rector.WorkingDir)

	level := 9
	phpstan := PHPStanCommand("php8.3", "/app", &PHPStanPlan{Paths: []string{"src"}, Level: &level})
	assert.Equal(t, "php8.3", phpstan.Path)
	assert.Equal(t, []string{"/app/vendor/bin/phpstan", "analyse", "src", "--level", "9"}, phpstan.Args)
}

func TestSymfonySet(t *testing.T) {
	assert.Equal(t, "SYMFONY_25", SymfonySet("2.5"))
	assert.Equal(t, "SYMFONY_74", SymfonySet("7.4"))
}
