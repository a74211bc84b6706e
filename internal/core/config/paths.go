package config

import (
	"path/filepath"
	"strings"
)

// ResolvedPaths are the config's file locations made absolute against a base
// directory, normally the directory holding the config file.
type ResolvedPaths struct {
	ScanPaths []string
	OutputDir string
	DOT       string
	Mermaid   string
	PlantUML  string
	TSV       string
	PNG       string
	Markdown  string
	DBPath    string
}

func ResolvePaths(cfg *Config, base string) ResolvedPaths {
	outDir := ResolveRelative(base, cfg.Output.Dir)
	target := func(name string) string {
		if strings.TrimSpace(name) == "" {
			return ""
		}
		return ResolveRelative(outDir, name)
	}

	var markdown string
	if strings.TrimSpace(cfg.Output.Markdown) != "" {
		markdown = ResolveRelative(base, cfg.Output.Markdown)
	}

	scan := make([]string, 0, len(cfg.ScanPaths))
	for _, p := range cfg.ScanPaths {
		scan = append(scan, ResolveRelative(base, p))
	}

	return ResolvedPaths{
		ScanPaths: scan,
		OutputDir: outDir,
		DOT:       target(cfg.Output.DOT),
		Mermaid:   target(cfg.Output.Mermaid),
		PlantUML:  target(cfg.Output.PlantUML),
		TSV:       target(cfg.Output.TSV),
		PNG:       target(cfg.Output.PNG),
		Markdown:  markdown,
		DBPath:    ResolveRelative(base, cfg.DB.Path),
	}
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
