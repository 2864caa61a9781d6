package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL                = "https://cad.onshape.com"
	DefaultDelayBetweenIterations = 2.0
	DefaultSettleDelay            = 1.0
)

// Sweep run configuration
type Configuration struct {
	// Credentials and address of the CAD API
	API *APIConfig `json:"api" yaml:"api" validate:"required"`
	// Part studio holding the variable
	Document *Document `json:"document" yaml:"document" validate:"required"`
	// Variable to sweep and its range
	Variable *SweepConfig `json:"variable" yaml:"variable" validate:"required"`
	// Export formats and destination
	Export *ExportConfig `json:"export" yaml:"export" validate:"required"`
	// Delays in seconds
	Timing *TimingConfig `json:"timing" yaml:"timing" validate:"required"`
}

type APIConfig struct {
	AccessKey *SecretValue `json:"access_key" yaml:"access_key" validate:"required"`
	SecretKey *SecretValue `json:"secret_key" yaml:"secret_key" validate:"required"`
	BaseURL   string       `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
}

type SweepConfig struct {
	Name       string   `json:"name" yaml:"name" validate:"required"`
	StartValue *float64 `json:"start_value" yaml:"start_value" validate:"required"`
	EndValue   *float64 `json:"end_value" yaml:"end_value" validate:"required"`
	StepSize   *float64 `json:"step_size" yaml:"step_size" validate:"required,gt=0"`
	// Appended to the value when writing the expression, e.g. "mm"
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type ExportConfig struct {
	OutputFolder    string   `json:"output_folder" yaml:"output_folder" validate:"required"`
	ExportStep      *bool    `json:"export_step,omitempty" yaml:"export_step,omitempty"`
	ExportParasolid *bool    `json:"export_parasolid,omitempty" yaml:"export_parasolid,omitempty"`
	PartIDs         []string `json:"part_ids,omitempty" yaml:"part_ids,omitempty" validate:"omitempty,dive,required"`
}

type TimingConfig struct {
	DelayBetweenIterations *float64 `json:"delay_between_iterations,omitempty" yaml:"delay_between_iterations,omitempty" validate:"omitempty,gte=0"`
	SettleDelay            *float64 `json:"settle_delay,omitempty" yaml:"settle_delay,omitempty" validate:"omitempty,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load a JSON (or YAML, by extension) configuration file
func ReadConfiguration(path string) (*Configuration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	c := Configuration{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(bytes.NewReader(content)).Decode(&c)
	default:
		err = json.Unmarshal(content, &c)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}

	if err := c.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.Export.ExportStep == nil {
		c.Export.ExportStep = ptr(true)
	}
	if c.Export.ExportParasolid == nil {
		c.Export.ExportParasolid = ptr(false)
	}
	if c.Timing.DelayBetweenIterations == nil {
		c.Timing.DelayBetweenIterations = ptr(DefaultDelayBetweenIterations)
	}
	if c.Timing.SettleDelay == nil {
		c.Timing.SettleDelay = ptr(DefaultSettleDelay)
	}

	return &c, nil
}

func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Enabled export formats, STEP first
func (c *Configuration) ExportFormats() []ExportFormat {
	formats := []ExportFormat{}
	if c.Export == nil {
		return formats
	}
	if c.Export.ExportStep == nil || *c.Export.ExportStep {
		formats = append(formats, ExportSTEP)
	}
	if c.Export.ExportParasolid != nil && *c.Export.ExportParasolid {
		formats = append(formats, ExportParasolid)
	}
	return formats
}

func (t *TimingConfig) IterationDelay() time.Duration {
	if t == nil || t.DelayBetweenIterations == nil {
		return seconds(DefaultDelayBetweenIterations)
	}
	return seconds(*t.DelayBetweenIterations)
}

func (t *TimingConfig) Settle() time.Duration {
	if t == nil || t.SettleDelay == nil {
		return seconds(DefaultSettleDelay)
	}
	return seconds(*t.SettleDelay)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func ptr[T any](v T) *T {
	return &v
}
