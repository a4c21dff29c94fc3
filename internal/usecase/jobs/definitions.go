package jobs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
)

const defaultTimeoutSeconds = 120

type typeDefinition struct {
	Enabled        *bool  `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ResultPrefix   string `toml:"result_prefix"`
}

type definitionsFile struct {
	Version int                       `toml:"version"`
	Types   map[string]typeDefinition `toml:"types"`
}

// TypeSettings is the resolved execution policy for one job type. The
// result prefix keys uploaded artifacts in the object store.
type TypeSettings struct {
	Enabled      bool
	Timeout      time.Duration
	ResultPrefix string
}

// Definitions holds per-type execution settings loaded from jobs.toml.
type Definitions struct {
	types map[string]TypeSettings
}

// DefaultDefinitions enables every known job type with the default timeout.
func DefaultDefinitions() Definitions {
	types := make(map[string]TypeSettings, 3)
	for _, jobType := range []string{aq.JobTypeHotspot, aq.JobTypeAnomaly, aq.JobTypeTrend} {
		types[jobType] = TypeSettings{
			Enabled:      true,
			Timeout:      defaultTimeoutSeconds * time.Second,
			ResultPrefix: "results/",
		}
	}
	return Definitions{types: types}
}

// LoadDefinitions reads a jobs.toml. A missing file yields the defaults;
// unknown job types in the file are rejected.
func LoadDefinitions(path string) (Definitions, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return DefaultDefinitions(), nil
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultDefinitions(), nil
		}
		return Definitions{}, errs.Wrapf(err, "read job definitions %q", trimmed)
	}

	var file definitionsFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return Definitions{}, errs.Wrap(err, "parse job definitions")
	}
	if file.Version != 1 {
		return Definitions{}, fmt.Errorf("unsupported job definitions version %d, expected 1", file.Version)
	}

	defs := DefaultDefinitions()
	for name, override := range file.Types {
		normalized, err := aq.NormalizeJobType(name)
		if err != nil {
			return Definitions{}, errs.Wrapf(err, "job definitions type %q", name)
		}

		settings := defs.types[normalized]
		if override.Enabled != nil {
			settings.Enabled = *override.Enabled
		}
		if override.TimeoutSeconds > 0 {
			settings.Timeout = time.Duration(override.TimeoutSeconds) * time.Second
		}
		if prefix := strings.TrimSpace(override.ResultPrefix); prefix != "" {
			if !strings.HasSuffix(prefix, "/") {
				prefix += "/"
			}
			settings.ResultPrefix = prefix
		}
		defs.types[normalized] = settings
	}

	return defs, nil
}

// Settings returns the policy for a normalized job type.
func (d Definitions) Settings(jobType string) (TypeSettings, bool) {
	settings, ok := d.types[jobType]
	return settings, ok
}
