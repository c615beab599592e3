// Package generator provides plan synthesis and rendering per input file.
package generator

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"stagegen/internal/config"
	"stagegen/internal/model"
	"stagegen/internal/render"
	"stagegen/internal/synth"
)

// ErrNoRecords is returned when no record of the input is selected.
var ErrNoRecords = errors.New("no records selected for generation")

// Generator synthesizes builders for the records of a parsed file.
type Generator struct {
	config   *config.Config
	renderer *render.Renderer
	logger   *zap.Logger
}

// New creates a new Generator using the built-in builder template.
func New(cfg *config.Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config:   cfg,
		renderer: render.New(cfg.Options.FixImports),
		logger:   logger,
	}
}

// LoadTemplate replaces the built-in template with the file at path.
func (g *Generator) LoadTemplate(path string) error {
	if err := g.renderer.LoadTemplate(path); err != nil {
		return err
	}
	g.logger.Debug("custom template loaded", zap.String("template", path))
	return nil
}

// Plan synthesizes a plan for every selected record, in source order. In
// strict mode every rejected record is reported in the returned error.
func (g *Generator) Plan(file *model.File) ([]*synth.Plan, error) {
	var (
		plans []*synth.Plan
		errs  []error
	)
	for _, rec := range g.filterRecords(file.Records) {
		plan, err := synth.Synthesize(rec, g.options(rec))
		if err != nil {
			g.logger.Error("record rejected", zap.String("record", rec.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		for _, w := range plan.Warnings {
			g.logger.Warn("explicit order", zap.String("record", rec.Name), zap.String("warning", w))
		}
		g.logger.Debug("builder synthesized",
			zap.String("record", rec.Name),
			zap.Strings("steps", stepNames(plan.Steps)),
			zap.Int("stages", len(plan.Stages)),
		)
		plans = append(plans, plan)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return plans, nil
}

// Generate writes the builders of file to w, as Go source or as a YAML plan
// dump depending on the configured format. outPath names the output file and
// may be empty.
func (g *Generator) Generate(file *model.File, outPath string, w io.Writer) error {
	plans, err := g.Plan(file)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return fmt.Errorf("%s: %w", file.Path, ErrNoRecords)
	}

	if g.config.Options.Format == config.FormatYAML {
		return render.EncodePlans(w, plans)
	}

	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(file.Path), "builders.go")
	}
	data := &render.Data{
		Package: file.Package,
		Source:  filepath.Base(file.Path),
		Imports: render.SelectImports(file.Imports, plans),
		Plans:   plans,
	}
	out, err := g.renderer.Render(outPath, data)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	g.logger.Info("builders generated",
		zap.String("input", file.Path),
		zap.Int("records", len(plans)),
		zap.Int("bytes", len(out)),
	)
	return nil
}

// filterRecords filters records based on configuration.
func (g *Generator) filterRecords(records []model.Record) []model.Record {
	var result []model.Record
	for _, r := range records {
		if g.config.ShouldIncludeRecord(r.Name, r.IsExported, r.Directive != nil) {
			result = append(result, r)
			continue
		}
		g.logger.Debug("record skipped", zap.String("record", r.Name))
	}
	return result
}

// options merges the record directive with the configured defaults.
func (g *Generator) options(rec model.Record) synth.Options {
	opts := synth.Options{
		Strict:           g.config.Options.Strict,
		LoopAccumulators: g.config.Options.LoopAccumulators,
	}
	if d := rec.Directive; d != nil {
		opts.Order = d.Order
		opts.Strict = opts.Strict || d.Strict
		opts.LoopAccumulators = opts.LoopAccumulators || d.LoopAccumulators
	}
	return opts
}

func stepNames(steps []synth.Step) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
