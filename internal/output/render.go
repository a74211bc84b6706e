package output

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	errs "duml/internal/core/errors"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"
	"duml/internal/shared/util"
)

type Format string

const (
	FormatDOT      Format = "dot"
	FormatMermaid  Format = "mermaid"
	FormatPlantUML Format = "plantuml"
	FormatTSV      Format = "tsv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOT, FormatMermaid, FormatPlantUML, FormatTSV:
		return f, nil
	case "puml":
		return FormatPlantUML, nil
	case "mmd":
		return FormatMermaid, nil
	}
	return "", errs.Newf(errs.CodeNotSupported, "unsupported output format %q", s)
}

// Render produces the document for one format.
func Render(format Format, tree *model.Tree, g *graph.Graph, opts DrawOptions) (string, error) {
	switch format {
	case FormatDOT:
		return NewDOTGenerator(tree, g, opts).Generate()
	case FormatMermaid:
		return NewMermaidGenerator(tree, g, opts).Generate()
	case FormatPlantUML:
		return NewPlantUMLGenerator(tree, g, opts).Generate()
	case FormatTSV:
		return NewTSVGenerator(tree).Generate()
	}
	return "", errs.Newf(errs.CodeNotSupported, "unsupported output format %q", format)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if err := util.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return errs.AddContext(errs.Wrap(err, errs.CodeInternal, "write output"), errs.CtxPath, path)
	}
	return nil
}

// DotBinary is the Graphviz executable used for image rendering.
var DotBinary = "dot"

// RenderPNG converts a DOT file into a PNG image with the Graphviz binary.
func RenderPNG(ctx context.Context, dotPath, pngPath string) error {
	bin, err := exec.LookPath(DotBinary)
	if err != nil {
		return errs.Wrap(err, errs.CodeNotFound, "graphviz dot binary not found")
	}
	if dir := filepath.Dir(pngPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, errs.CodeInternal, "create image directory")
		}
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-Tpng", dotPath, "-o", pngPath)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.AddContext(
			errs.Wrap(err, errs.CodeInternal, "dot failed: "+strings.TrimSpace(stderr.String())),
			errs.CtxPath, dotPath,
		)
	}
	return nil
}
