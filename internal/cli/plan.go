package cli

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pancake-llc/foundation-sub024/config"
)

// PlanOptions holds flags of the plan command.
type PlanOptions struct {
	Strict bool
}

// PlanResult is the JSON payload of the plan command.
type PlanResult struct {
	File     string             `json:"file"`
	Services []config.PlanEntry `json:"services"`
	Skipped  int                `json:"skipped"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Predict the first injection pass of a service catalog file",
		Long: `Predict which services the first injection pass initializes.

Each service is attempted once, in file order, using its requires list.
A service whose requires are not all provided by eager or lazy services
is skipped for the whole session. Lazy services are initialized when first
looked up; async services when they are collected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with failure if any service would be skipped")

	return cmd
}

func runPlan(rootOpts *RootOptions, opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	file, err := loadFile(formatter, path)
	if err != nil {
		return err
	}

	entries := file.Plan()
	result := PlanResult{File: path, Services: entries}
	for _, entry := range entries {
		if entry.Status == config.StatusSkipped {
			result.Skipped++
			formatter.Logger.Debug("service would be skipped",
				zap.String("service", entry.Name),
				zap.Strings("missing", entry.Missing),
			)
		}
	}

	if err := formatter.Success(formatPlan(result), result); err != nil {
		return err
	}

	if opts.Strict && result.Skipped > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d service(s) would be skipped", result.Skipped))
	}
	return nil
}

// formatPlan renders the plan as an aligned table.
func formatPlan(result PlanResult) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tDEFINES\tLIFETIME\tSTATUS\tMISSING")
	for _, entry := range result.Services {
		missing := strings.Join(entry.Missing, ", ")
		if missing == "" {
			missing = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", entry.Name, entry.Defines, entry.Lifetime, entry.Status, missing)
	}
	w.Flush()

	fmt.Fprintf(&buf, "\n%d service(s), %d skipped", len(result.Services), result.Skipped)
	return buf.String()
}
