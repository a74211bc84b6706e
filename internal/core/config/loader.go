package config

import (
	"os"
	"strings"
	"time"

	errs "duml/internal/core/errors"
	"duml/internal/engine/scanner"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the working directory when no
// path is given.
const DefaultFile = "duml.toml"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.AddContext(errs.Wrap(err, errs.CodeNotFound, "config file not found"), errs.CtxPath, path)
		}
		return nil, errs.AddContext(errs.Wrap(err, errs.CodeInternal, "read config"), errs.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errs.AddContext(errs.Wrap(err, errs.CodeValidationError, "decode config"), errs.CtxPath, path)
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validateKeywords(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads path when given. Without a path it loads DefaultFile
// if present and falls back to DefaultConfig otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return DefaultConfig(), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".d", ".di"}
	}
	for i, ext := range cfg.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions[i] = ext
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", ".dub"}
	}

	kw := scanner.DefaultKeywords()
	if len(cfg.Keywords.Qualifiers) == 0 {
		cfg.Keywords.Qualifiers = kw.Qualifiers
	}
	if len(cfg.Keywords.BlockQualifiers) == 0 {
		cfg.Keywords.BlockQualifiers = kw.BlockQualifiers
	}
	if len(cfg.Keywords.PrimitiveTypes) == 0 {
		cfg.Keywords.PrimitiveTypes = kw.PrimitiveTypes
	}

	if strings.TrimSpace(cfg.Draw.Options) == "" {
		cfg.Draw.Options = "*"
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "."
	}
	if strings.TrimSpace(cfg.Output.MarkdownMarker) == "" {
		cfg.Output.MarkdownMarker = "classes"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "data/duml.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}
	if cfg.DB.Keep == 0 {
		cfg.DB.Keep = 20
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSecond <= 0 {
		cfg.Watch.MaxRebuildsPerSecond = 2
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "duml"
	}
}
