// Package phpenv determines the PHP version rules are filtered against.
package phpenv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"

	"github.com/dkoosis/pqs/internal/runner"
	"github.com/dkoosis/pqs/pkg/semver"
)

// ErrNoPHPRequirement is returned when composer.json declares no PHP version.
var ErrNoPHPRequirement = errors.New("composer.json declares no php version")

type composerFile struct {
	Require map[string]string `json:"require"`
	Config  struct {
		Platform map[string]string `json:"platform"`
	} `json:"config"`
}

var versionToken = regexp.MustCompile(`\d+(?:\.\d+){0,2}`)

// ResolveProjectVersion reads composer.json in dir and returns the PHP
// version the project targets: config.platform.php when present, otherwise
// the lowest version allowed by require.php.
func ResolveProjectVersion(dir string) (semver.Version, error) {
	path := filepath.Join(dir, "composer.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return semver.Version{}, fmt.Errorf("read %s: %w", path, err)
	}

	var cf composerFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return semver.Version{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if platform := strings.TrimSpace(cf.Config.Platform["php"]); platform != "" {
		v, err := coerce(platform)
		if err != nil {
			return semver.Version{}, fmt.Errorf("%s config.platform.php: %w", path, err)
		}
		return v, nil
	}

	req := strings.TrimSpace(cf.Require["php"])
	if req == "" {
		return semver.Version{}, fmt.Errorf("%w: %s", ErrNoPHPRequirement, path)
	}
	v, err := LowerBound(req)
	if err != nil {
		return semver.Version{}, fmt.Errorf("%s require.php: %w", path, err)
	}
	return v, nil
}

// LowerBound returns the smallest version a composer constraint such as
// "^7.4 || ^8.0" or ">=8.1 <8.4" admits.
func LowerBound(constraint string) (semver.Version, error) {
	normalized := normalizeComposer(constraint)
	if _, err := mmsemver.NewConstraint(normalized); err != nil {
		return semver.Version{}, &semver.ParseError{Version: constraint, Message: err.Error()}
	}

	var lowest *mmsemver.Version
	for _, branch := range strings.Split(normalized, "||") {
		branch = strings.TrimSpace(branch)
		if strings.HasPrefix(branch, "<") || strings.HasPrefix(branch, "!=") {
			// Upper-bound-only branches admit arbitrarily old versions.
			continue
		}
		token := versionToken.FindString(branch)
		if token == "" {
			continue
		}
		v, err := mmsemver.NewVersion(token)
		if err != nil {
			return semver.Version{}, &semver.ParseError{Version: constraint, Message: err.Error()}
		}
		if lowest == nil || v.LessThan(lowest) {
			lowest = v
		}
	}
	if lowest == nil {
		return semver.Version{}, &semver.ParseError{Version: constraint, Message: "no lower bound"}
	}
	return fromMasterminds(lowest), nil
}

// normalizeComposer maps composer-only syntax onto what Masterminds accepts.
func normalizeComposer(c string) string {
	c = strings.ReplaceAll(c, "||", "\x00")
	c = strings.ReplaceAll(c, "|", "||")
	c = strings.ReplaceAll(c, "\x00", "||")
	c = strings.ReplaceAll(c, "@dev", "")
	c = strings.ReplaceAll(c, "@stable", "")
	return strings.TrimSpace(c)
}

func coerce(s string) (semver.Version, error) {
	v, err := mmsemver.NewVersion(s)
	if err != nil {
		return semver.Version{}, &semver.ParseError{Version: s, Message: err.Error()}
	}
	return fromMasterminds(v), nil
}

func fromMasterminds(v *mmsemver.Version) semver.Version {
	return semver.Version{Major: int(v.Major()), Minor: int(v.Minor()), Patch: int(v.Patch())}
}

// Prober runs a command and returns its standard output.
type Prober interface {
	Output(ctx context.Context, cmd runner.Command) ([]byte, error)
}

// ResolveRuntimeVersion asks the php binary for PHP_VERSION_ID.
func ResolveRuntimeVersion(ctx context.Context, p Prober, php string) (semver.Version, error) {
	if php == "" {
		php = "php"
	}
	out, err := p.Output(ctx, runner.Command{
		Name: "php",
		Path: php,
		Args: []string{"-r", "echo PHP_VERSION_ID;"},
	})
	if err != nil {
		return semver.Version{}, err
	}
	text := strings.TrimSpace(string(out))
	id, err := strconv.Atoi(text)
	if err != nil {
		return semver.Version{}, &semver.ParseError{Version: text, Message: "PHP_VERSION_ID is not an integer"}
	}
	return semver.FromEncodedInt(id), nil
}
