// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/elemkit/internal/browser"
	"github.com/xkilldash9x/elemkit/internal/config"
	"github.com/xkilldash9x/elemkit/internal/observability"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

type configKeyType struct{}

var configKey = configKeyType{}

// sessionOpener starts a browser session. Tests swap it for an in-memory driver.
type sessionOpener func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*browser.Session, error)

// rootOptions holds the persistent flags of one command tree.
type rootOptions struct {
	cfgFile string
	envFile string
	url     string
	backend string
	open    sessionOpener
}

// NewRootCommand builds a fresh command tree backed by real browsers.
func NewRootCommand() *cobra.Command {
	return newRootCmd(browser.Open)
}

func newRootCmd(open sessionOpener) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "elemkit",
		Short: "elemkit drives page elements in a live browser session.",
		Long: `elemkit finds, hovers, clicks and types into page elements through
Chrome DevTools, WebDriver or Playwright. Selectors take the form
strategy=value (css=, xpath=, id=, name=, tag=, class=, link=, partial=);
a bare selector is treated as CSS.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), opts.cfgFile, opts.envFile)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "elemkit"})
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if opts.backend != "" {
				cfg.Browser.Backend = strings.ToLower(opts.backend)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting elemkit", zap.String("version", Version), zap.String("backend", cfg.Browser.Backend))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./elemkit.yaml or ~/.elemkit.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file exported before reading configuration")
	cmd.PersistentFlags().StringVarP(&opts.url, "url", "u", "", "navigate to this URL before acting")
	cmd.PersistentFlags().StringVarP(&opts.backend, "backend", "b", "", "browser backend: cdp, webdriver or playwright")
	cmd.SetVersionTemplate("elemkit version {{.Version}}\n")

	cmd.AddCommand(
		newExistsCmd(opts),
		newWaitCmd(opts),
		newHoverCmd(opts),
		newClickCmd(opts),
		newTypeCmd(opts),
		newAliveCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command under ctx and logs any failure.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	return err
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// withSession opens a browser session, optionally navigates to --url, and
// hands fn a helper built from the configuration. The session is closed
// when fn returns.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, h *interact.Helper, s *browser.Session) error) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := observability.GetLogger()

	s, err := o.open(ctx, cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn("Failed to close browser session cleanly.", zap.Error(cerr))
		}
	}()

	if o.url != "" {
		if err := s.Navigate(ctx, o.url); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", o.url, err)
		}
	}

	return fn(ctx, interact.New(logger, cfg.Helper.Options()), s)
}
