// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/elemkit/internal/browser"
	"github.com/xkilldash9x/elemkit/internal/config"
	"github.com/xkilldash9x/elemkit/internal/observability"
	"github.com/xkilldash9x/elemkit/internal/steps"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run STEPS.json",
		Short: "Run a JSON step file and print a report",
		Long: `Run executes the steps in order and stops at the first failure. Use "-"
to read the steps from stdin. The JSON report is printed to stdout either way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				return runSteps(ctx, cmd.OutOrStdout(), h, cfg.Steps, s, list)
			})
		},
	}
}

func loadSteps(cmd *cobra.Command, path string) ([]steps.Step, error) {
	if path == "-" {
		return steps.Load(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open step file: %w", err)
	}
	defer f.Close()
	return steps.Load(f)
}

func runSteps(ctx context.Context, out io.Writer, h *interact.Helper, cfg config.StepsConfig, d interact.Driver, list []steps.Step) error {
	runner := steps.NewRunner(h, cfg, observability.GetLogger())
	report, runErr := runner.Run(ctx, d, list)

	encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(out, string(encoded))
	return runErr
}
