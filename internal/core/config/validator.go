package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	errs "duml/internal/core/errors"
	"duml/internal/output"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errs.Newf(errs.CodeValidationError, "unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	for i, ext := range cfg.Extensions {
		if ext == "" || ext == "." {
			return errs.Newf(errs.CodeValidationError, "extensions[%d] must not be empty", i)
		}
	}
	for i, p := range cfg.ScanPaths {
		if strings.TrimSpace(p) == "" {
			return errs.Newf(errs.CodeValidationError, "scan_paths[%d] must not be empty", i)
		}
	}
	for section, patterns := range map[string][]string{"exclude.dirs": cfg.Exclude.Dirs, "exclude.files": cfg.Exclude.Files} {
		for i, p := range patterns {
			if _, err := glob.Compile(p, '/'); err != nil {
				return errs.Wrap(err, errs.CodeValidationError, fmt.Sprintf("%s[%d] is not a valid glob %q", section, i, p))
			}
		}
	}
	return nil
}

func validateKeywords(cfg *Config) error {
	lists := []struct {
		name  string
		words []string
	}{
		{"keywords.qualifiers", cfg.Keywords.Qualifiers},
		{"keywords.block_qualifiers", cfg.Keywords.BlockQualifiers},
		{"keywords.primitive_types", cfg.Keywords.PrimitiveTypes},
	}
	for _, l := range lists {
		for i, w := range l.words {
			w = strings.TrimSpace(w)
			if w == "" || strings.ContainsAny(w, " \t\n") {
				return errs.Newf(errs.CodeValidationError, "%s[%d] must be a single word, got %q", l.name, i, w)
			}
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if _, err := output.ParseDrawOptions(cfg.Draw.Options); err != nil {
		return err
	}

	targets := []struct {
		key  string
		path string
	}{
		{"output.dot", cfg.Output.DOT},
		{"output.mermaid", cfg.Output.Mermaid},
		{"output.plantuml", cfg.Output.PlantUML},
		{"output.tsv", cfg.Output.TSV},
		{"output.png", cfg.Output.PNG},
		{"output.markdown", cfg.Output.Markdown},
	}
	seen := make(map[string]string, len(targets))
	for _, t := range targets {
		p := strings.TrimSpace(t.path)
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if prev, ok := seen[p]; ok {
			return errs.Newf(errs.CodeValidationError, "output conflict: %s and %s share the same path %q", prev, t.key, t.path)
		}
		seen[p] = t.key
	}
	if strings.TrimSpace(cfg.Output.PNG) != "" && strings.TrimSpace(cfg.Output.DOT) == "" {
		return errs.New(errs.CodeValidationError, "output.png requires output.dot")
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		return errs.New(errs.CodeValidationError, "db.path must not be empty")
	}
	if cfg.DB.Enabled && cfg.DB.Keep < 1 {
		return errs.Newf(errs.CodeValidationError, "db.keep must be at least 1, got %d", cfg.DB.Keep)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return errs.Newf(errs.CodeValidationError, "watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRebuildsPerSecond < 0 {
		return errs.Newf(errs.CodeValidationError, "watch.max_rebuilds_per_second must not be negative, got %g", cfg.Watch.MaxRebuildsPerSecond)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return errs.Wrap(err, errs.CodeValidationError, fmt.Sprintf("observability.address %q is not host:port", cfg.Observability.Address))
	}
	return nil
}

// Validate runs every check and returns all failures. It is used after
// environment and flag overrides have been applied on top of a loaded file.
func Validate(cfg *Config) []error {
	var out []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateScan,
		validateKeywords,
		validateOutput,
		validateDatabase,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			out = append(out, err)
		}
	}
	return out
}
