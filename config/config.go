// Package config loads service catalog configuration files.
//
// A file lists the services to create when a context is entered, in the
// order they are registered. YAML:
//
//	services:
//	  - name: audio
//	    defines: Audio
//	    factory: audio.mixer
//	  - name: player
//	    defines: Player
//	    factory: player.default
//	    requires: [Input, Audio]
//
// HCL:
//
//	service "audio" {
//	  defines = "Audio"
//	  factory = "audio.mixer"
//	}
//
//	service "player" {
//	  defines  = "Player"
//	  factory  = "player.default"
//	  lifetime = "lazy"
//	  requires = ["Input", "Audio"]
//	}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .hcl)", filepath.Ext(path))
	}
}

// File is a service catalog configuration.
type File struct {
	Services []Service `yaml:"services" hcl:"service,block" json:"services" validate:"dive"`
}

// Service configures one service.
type Service struct {
	// Name identifies the service in reports.
	Name string `yaml:"name" hcl:"name,label" json:"name" validate:"required"`

	// Defines is the catalog name of the defining type.
	Defines string `yaml:"defines" hcl:"defines" json:"defines" validate:"required"`

	// Factory is the catalog key of the factory creating the service.
	Factory string `yaml:"factory" hcl:"factory" json:"factory" validate:"required"`

	// Lifetime is eager (default), lazy or async.
	Lifetime string `yaml:"lifetime,omitempty" hcl:"lifetime,optional" json:"lifetime,omitempty" validate:"omitempty,oneof=eager lazy async"`

	// Requires lists the catalog names of the service's Init arguments.
	Requires []string `yaml:"requires,omitempty" hcl:"requires,optional" json:"requires,omitempty" validate:"max=5,dive,required"`
}

// EffectiveLifetime returns the lifetime, defaulting to eager.
func (s Service) EffectiveLifetime() string {
	if s.Lifetime == "" {
		return "eager"
	}
	return s.Lifetime
}

// Loader decodes configuration data of one format.
type Loader interface {
	Load(data []byte, filename string) (*File, error)
}

// YAMLLoader decodes YAML files, rejecting unknown fields.
type YAMLLoader struct{}

// Load decodes YAML data.
func (YAMLLoader) Load(data []byte, filename string) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}
	return &file, nil
}

// HCLLoader decodes HCL files.
type HCLLoader struct{}

// Load decodes HCL data.
func (HCLLoader) Load(data []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var file File
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return &file, nil
}

// LoaderFor returns the loader of format.
func LoaderFor(format Format) (Loader, error) {
	switch format {
	case FormatYAML:
		return YAMLLoader{}, nil
	case FormatHCL:
		return HCLLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

// Load reads, decodes and validates the file at path.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, format, path)
}

// Parse decodes and validates data.
func Parse(data []byte, format Format, filename string) (*File, error) {
	loader, err := LoaderFor(format)
	if err != nil {
		return nil, err
	}
	file, err := loader.Load(data, filename)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

var validate = validator.New()

// Validate checks field constraints and that service names are unique.
func (f *File) Validate() error {
	var errs []error

	if err := validate.Struct(f); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		for _, fe := range fieldErrors {
			errs = append(errs, formatFieldError(fe))
		}
	}

	seen := make(map[string]int, len(f.Services))
	for i, svc := range f.Services {
		if svc.Name == "" {
			continue
		}
		if first, dup := seen[svc.Name]; dup {
			errs = append(errs, fmt.Errorf("services[%d]: name %q already used by services[%d]", i, svc.Name, first))
			continue
		}
		seen[svc.Name] = i
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) error {
	field := strings.TrimPrefix(e.Namespace(), "File.")

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "max":
		return fmt.Errorf("%s must have at most %s entries", field, e.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Errorf("%s is invalid (%s)", field, e.Tag())
	}
}

// ValidationError lists every problem found in a configuration file.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.Errors[0])
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("invalid config: %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	return e.Errors
}
