package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	errs "duml/internal/core/errors"
	"duml/internal/output"
	"duml/internal/shared/observability"
)

type outputTarget struct {
	format output.Format
	path   string
}

func (a *App) outputTargets() []outputTarget {
	var targets []outputTarget
	for _, t := range []outputTarget{
		{output.FormatDOT, a.Paths.DOT},
		{output.FormatMermaid, a.Paths.Mermaid},
		{output.FormatPlantUML, a.Paths.PlantUML},
		{output.FormatTSV, a.Paths.TSV},
	} {
		if t.path != "" {
			targets = append(targets, t)
		}
	}
	for _, t := range a.opts.Targets {
		if t.Path != "" {
			targets = append(targets, outputTarget{t.Format, t.Path})
		}
	}
	return targets
}

// GenerateOutputs renders the last build to every configured output file and
// to the Options targets, and returns the paths written. A failing target does not stop the others.
func (a *App) GenerateOutputs(ctx context.Context) ([]string, error) {
	res := a.Last()
	if res == nil {
		return nil, errs.New(errs.CodeValidationError, "nothing built yet")
	}
	ctx, span := observability.Tracer.Start(ctx, "app.GenerateOutputs")
	defer span.End()

	var (
		written []string
		failed  []error
	)
	for _, t := range a.outputTargets() {
		doc, err := output.Render(t.format, res.Tree, res.Graph, a.draw)
		if err == nil {
			err = output.WriteFile(t.path, doc)
		}
		if err != nil {
			failed = append(failed, errs.AddContext(err, errs.CtxPath, t.path))
			continue
		}
		written = append(written, t.path)
		slog.Debug("output written", "format", t.format, "path", t.path)
	}

	for _, t := range a.opts.Targets {
		if t.Path != "" || t.Writer == nil {
			continue
		}
		if err := a.RenderTo(t.Writer, t.Format); err != nil {
			failed = append(failed, err)
		}
	}

	if a.Paths.Markdown != "" {
		if err := a.injectMarkdown(res); err != nil {
			failed = append(failed, err)
		} else {
			written = append(written, a.Paths.Markdown)
		}
	}

	if a.Paths.PNG != "" && a.Paths.DOT != "" {
		if err := output.RenderPNG(ctx, a.Paths.DOT, a.Paths.PNG); err != nil {
			failed = append(failed, err)
		} else {
			written = append(written, a.Paths.PNG)
		}
	}
	return written, errors.Join(failed...)
}

func (a *App) injectMarkdown(res *BuildResult) error {
	doc, err := output.Render(output.FormatMermaid, res.Tree, res.Graph, a.draw)
	if err != nil {
		return err
	}
	return output.InjectDiagram(a.Paths.Markdown, a.Config.Output.MarkdownMarker, output.MarkdownBlock(doc))
}

// RenderTo writes the last build in one format to w.
func (a *App) RenderTo(w io.Writer, format output.Format) error {
	res := a.Last()
	if res == nil {
		return errs.New(errs.CodeValidationError, "nothing built yet")
	}
	doc, err := output.Render(format, res.Tree, res.Graph, a.draw)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}
