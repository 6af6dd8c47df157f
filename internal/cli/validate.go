package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pancake-llc/foundation-sub024/config"
)

// ValidateResult is the JSON payload of a successful validate command.
type ValidateResult struct {
	File     string           `json:"file"`
	Services []config.Service `json:"services"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a service catalog file",
		Long: `Validate a YAML (.yaml, .yml) or HCL (.hcl) service catalog file.

Checks the syntax, the field constraints (name, defines and factory are
required, lifetime is eager, lazy or async, at most five requires) and
that service names are unique.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	file, err := loadFile(formatter, path)
	if err != nil {
		return err
	}

	return formatter.Success(
		fmt.Sprintf("✓ %s: %d service(s) valid", path, len(file.Services)),
		ValidateResult{File: path, Services: file.Services},
	)
}

// loadFile loads path and reports load failures through formatter. The
// returned error carries the exit code.
func loadFile(formatter *OutputFormatter, path string) (*config.File, error) {
	formatter.Logger.Debug("loading config file", zap.String("path", path))

	file, err := config.Load(path)
	if err == nil {
		formatter.Logger.Debug("config file loaded", zap.String("path", path), zap.Int("services", len(file.Services)))
		return file, nil
	}

	formatter.Logger.Debug("config file rejected", zap.String("path", path), zap.Error(err))

	var validationErr *config.ValidationError
	switch {
	case errors.As(err, &validationErr):
		if outErr := formatter.Error(ErrCodeInvalid, "invalid config file "+path, errorLines(validationErr)); outErr != nil {
			return nil, outErr
		}
		return nil, WrapExitError(ExitFailure, "invalid config file", err)
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		if outErr := formatter.Error(ErrCodeLoad, err.Error(), nil); outErr != nil {
			return nil, outErr
		}
		return nil, WrapExitError(ExitCommandError, "cannot read config file", err)
	default:
		if outErr := formatter.Error(ErrCodeLoad, err.Error(), nil); outErr != nil {
			return nil, outErr
		}
		return nil, WrapExitError(ExitFailure, "cannot load config file", err)
	}
}
