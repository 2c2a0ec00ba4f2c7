// File: cmd/interact.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/elemkit/internal/browser"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

func parseSelectorArg(raw string) (interact.Selector, error) {
	sel, err := interact.ParseSelector(raw)
	if err != nil {
		return interact.Selector{}, fmt.Errorf("invalid selector %q: %w", raw, err)
	}
	return sel, nil
}

func newExistsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists SELECTOR",
		Short: "Print whether the selector currently matches an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelectorArg(args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				fmt.Fprintln(cmd.OutOrStdout(), h.Exists(ctx, s, sel))
				return nil
			})
		},
	}
}

func newWaitCmd(opts *rootOptions) *cobra.Command {
	var timeout int
	cmd := &cobra.Command{
		Use:   "wait SELECTOR",
		Short: "Poll once per interval until the selector matches",
		Long: `Poll for the selector once per poll interval. The command fails after
--timeout intervals without a match. Zero uses helper.wait_timeout_seconds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelectorArg(args[0])
			if err != nil {
				return err
			}
			if timeout < 0 {
				return fmt.Errorf("--timeout must not be negative")
			}
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				if err := h.WaitFor(ctx, s, sel, timeout); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "found")
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "number of poll intervals to wait")
	return cmd
}

func newHoverCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hover SELECTOR",
		Short: "Scroll the element into view and move the pointer onto it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelectorArg(args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				return h.MoveTo(ctx, s, sel)
			})
		},
	}
}

func newClickCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "click SELECTOR",
		Short: "Click the element, retrying input area failures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelectorArg(args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				res, err := h.Click(ctx, s, sel)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "clicked=%t attempts=%d\n", res.Clicked, res.Attempts)
				return nil
			})
		},
	}
}

func newTypeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "type SELECTOR TEXT",
		Short: "Focus the element, clear it and type TEXT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelectorArg(args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				return h.SendKeys(ctx, s, sel, args[1])
			})
		},
	}
}

func newAliveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alive",
		Short: "Print whether the browser session has an open window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, h *interact.Helper, s *browser.Session) error {
				fmt.Fprintln(cmd.OutOrStdout(), h.SessionIsOpen(ctx, s))
				return nil
			})
		},
	}
}
