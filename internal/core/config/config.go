package config

import (
	"time"

	"duml/internal/engine/scanner"
)

// Config is the duml.toml schema.
type Config struct {
	Version       int           `toml:"version"`
	ScanPaths     []string      `toml:"scan_paths"`
	Extensions    []string      `toml:"extensions"`
	Exclude       Exclude       `toml:"exclude"`
	Keywords      Keywords      `toml:"keywords"`
	Draw          Draw          `toml:"draw"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

// Exclude holds glob patterns matched against directory base names and file
// paths during collection.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Keywords struct {
	Qualifiers      []string `toml:"qualifiers"`
	BlockQualifiers []string `toml:"block_qualifiers"`
	PrimitiveTypes  []string `toml:"primitive_types"`
}

// Scanner converts the keyword lists into the form the scanner is built from.
func (k Keywords) Scanner() scanner.Keywords {
	return scanner.Keywords{
		Qualifiers:      append([]string(nil), k.Qualifiers...),
		BlockQualifiers: append([]string(nil), k.BlockQualifiers...),
		PrimitiveTypes:  append([]string(nil), k.PrimitiveTypes...),
	}
}

type Draw struct {
	// Options is "*" or a subset of the letters c i a m t p.
	Options string `toml:"options"`
}

// Output names the files written after a scan. Relative names are placed in
// Dir; an empty name disables that format.
type Output struct {
	Dir      string `toml:"dir"`
	DOT      string `toml:"dot"`
	Mermaid  string `toml:"mermaid"`
	PlantUML string `toml:"plantuml"`
	TSV      string `toml:"tsv"`
	PNG      string `toml:"png"`

	// Markdown is an existing document, relative to the project rather than
	// Dir, whose marked section receives the Mermaid diagram.
	Markdown       string `toml:"markdown"`
	MarkdownMarker string `toml:"markdown_marker"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	// Keep is how many scans are retained; older ones are pruned after each
	// save.
	Keep int `toml:"keep"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
