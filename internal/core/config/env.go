package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: DUML_[SECTION]_[KEY] (e.g., DUML_OBSERVABILITY_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvList(&cfg.ScanPaths, "DUML_SCAN_PATHS")
	setEnvList(&cfg.Extensions, "DUML_EXTENSIONS")

	setEnvString(&cfg.Draw.Options, "DUML_DRAW_OPTIONS")

	// Output
	setEnvString(&cfg.Output.Dir, "DUML_OUTPUT_DIR")
	setEnvString(&cfg.Output.DOT, "DUML_OUTPUT_DOT")
	setEnvString(&cfg.Output.Mermaid, "DUML_OUTPUT_MERMAID")
	setEnvString(&cfg.Output.PlantUML, "DUML_OUTPUT_PLANTUML")
	setEnvString(&cfg.Output.TSV, "DUML_OUTPUT_TSV")
	setEnvString(&cfg.Output.PNG, "DUML_OUTPUT_PNG")
	setEnvString(&cfg.Output.Markdown, "DUML_OUTPUT_MARKDOWN")

	// Database
	setEnvBool(&cfg.DB.Enabled, "DUML_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "DUML_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "DUML_DB_BUSY_TIMEOUT")
	setEnvInt(&cfg.DB.Keep, "DUML_DB_KEEP")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "DUML_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSecond, "DUML_WATCH_MAX_REBUILDS_PER_SECOND")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "DUML_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "DUML_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "DUML_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "DUML_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value, dropping empty items.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = items
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = i
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = b
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = f
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = d
	}
}
