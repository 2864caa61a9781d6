package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Part studio operations a sweep needs, implemented by client.APIClient
type API interface {
	GetVariables(ctx context.Context, doc models.Document) (models.Variables, error)
	UpdateVariable(ctx context.Context, doc models.Document, name string, expression string) error
	Export(ctx context.Context, doc models.Document, format models.ExportFormat, partIDs []string, destination string) error
}

type Driver struct {
	API           API
	Configuration *models.Configuration
	// Blocks for the given duration between steps
	Sleep func(time.Duration)
}

// Outcome of one swept value
type Iteration struct {
	Index   int
	Value   float64
	Updated bool
	// Files written for this value
	Exports []string
	// Update failure, or the combined export failures
	Err error
}

type Summary struct {
	Iterations     int
	UpdatesFailed  int
	ExportsWritten int
	ExportsFailed  int
	OutputFolder   string
	Results        []Iteration
}

func NewDriver(api API, config *models.Configuration) *Driver {
	return &Driver{
		API:           api,
		Configuration: config,
		Sleep:         time.Sleep,
	}
}

// Read the current variables without changing anything
func (d *Driver) List(ctx context.Context) (models.Variables, error) {
	return d.API.GetVariables(ctx, *d.Configuration.Document)
}

// Run the sweep over every value of the configured range. Failures of single
// values are logged and recorded in the summary; only an invalid range or an
// unusable output folder abort the run.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	variable := d.Configuration.Variable
	values, err := RangeOf(variable).Values()
	if err != nil {
		return nil, err
	}

	output, err := filepath.Abs(d.Configuration.Export.OutputFolder)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	formats := d.Configuration.ExportFormats()
	log.Info().
		Str("variable", variable.Name).
		Float64("start", *variable.StartValue).
		Float64("end", *variable.EndValue).
		Float64("step", *variable.StepSize).
		Int("iterations", len(values)).
		Strs("formats", formatNames(formats)).
		Msg("starting sweep")

	summary := &Summary{
		Iterations:   len(values),
		OutputFolder: output,
		Results:      make([]Iteration, 0, len(values)),
	}
	for i, value := range values {
		logger := log.With().
			Int("iteration", i+1).
			Int("total", len(values)).
			Str("variable", variable.Name).
			Str("value", FormatValue(value)).
			Logger()

		result := d.iterate(ctx, logger, output, formats, i, value)
		summary.Results = append(summary.Results, result)
		if !result.Updated {
			summary.UpdatesFailed++
			continue
		}
		summary.ExportsWritten += len(result.Exports)
		summary.ExportsFailed += len(formats) - len(result.Exports)

		if i < len(values)-1 {
			d.Sleep(d.Configuration.Timing.IterationDelay())
		}
	}

	return summary, nil
}

func (d *Driver) iterate(ctx context.Context, logger zerolog.Logger, output string, formats []models.ExportFormat, i int, value float64) Iteration {
	result := Iteration{Index: i, Value: value}
	doc := *d.Configuration.Document
	variable := d.Configuration.Variable

	expression := Expression(value, variable.Unit)
	if err := d.API.UpdateVariable(ctx, doc, variable.Name, expression); err != nil {
		logger.Error().Err(err).Msg("failed to update variable, skipping exports")
		result.Err = err
		return result
	}
	result.Updated = true
	logger.Info().Str("expression", expression).Msg("variable updated")

	d.Sleep(d.Configuration.Timing.Settle())

	for _, format := range formats {
		destination := filepath.Join(output, Filename(variable.Name, value, format))
		err := d.API.Export(ctx, doc, format, d.Configuration.Export.PartIDs, destination)
		if err != nil {
			logger.Error().Err(err).Str("format", format.Label()).Msg("export failed")
			result.Err = multierr.Append(result.Err, fmt.Errorf("%s export: %w", format.Label(), err))
			continue
		}
		logger.Info().Str("format", format.Label()).Str("path", destination).Msg("exported")
		result.Exports = append(result.Exports, destination)
	}
	return result
}

func formatNames(formats []models.ExportFormat) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Label())
	}
	return names
}
