package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/auth"
	"github.com/fwojciec/comparator/lipgloss"
	"github.com/fwojciec/comparator/server"
	"github.com/fwojciec/comparator/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cli struct {
	v       *viper.Viper
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
}

// NewRootCmd builds the comparator command tree over v.
func NewRootCmd(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{v: v, stdout: stdout, stderr: stderr}
	setDefaults(v)

	root := &cobra.Command{
		Use:           "comparator",
		Short:         "Compare answers from Groq and Gemini side by side",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return readConfig(c.v, c.cfgFile)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.comparator.yaml)")
	flags.String("user", "", "user ID that owns recorded history")
	flags.Bool("json", false, "print results as JSON")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Duration("timeout", 60*time.Second, "per-provider call timeout (0 disables)")
	for _, name := range []string{"user", "json", "verbose", "timeout"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		c.compareCmd(),
		c.rubricCmd(),
		c.historyCmd(),
		c.replayCmd(),
		c.serveCmd(),
	)
	return root
}

// setup resolves configuration and wires the service. The returned
// cleanup flushes history writes and telemetry.
func (c *cli) setup(ctx context.Context, jsonLogs bool) (Config, *slog.Logger, *deps, func(), error) {
	cfg := LoadConfig(c.v)
	logger := newLogger(c.stderr, cfg, jsonLogs)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, nil, err
	}

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTelEndpoint, "comparator", version, cfg.OTelInsecure)
	if err != nil {
		return cfg, nil, nil, nil, err
	}

	d, err := build(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTelemetry(context.Background())
		return cfg, nil, nil, nil, err
	}

	cleanup := func() {
		if err := d.Close(); err != nil {
			logger.Warn("close resources", "error", err)
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("flush telemetry", "error", err)
		}
	}
	return cfg, logger, d, cleanup, nil
}

func (c *cli) app(ctx context.Context) (*App, func(), error) {
	cfg, _, d, cleanup, err := c.setup(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	return &App{
		Service:  d.service,
		Renderer: lipgloss.NewRenderer(nil, nil),
		Output:   c.stdout,
		Session:  comparator.Session{UserID: cfg.User},
		JSON:     cfg.JSON,
	}, cleanup, nil
}

func (c *cli) compareCmd() *cobra.Command {
	var system, mode string
	cmd := &cobra.Command{
		Use:   "compare PROMPT...",
		Short: "Send a prompt to the selected providers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := comparator.ParseMode(mode)
			if err != nil {
				return err
			}
			app, cleanup, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Compare(cmd.Context(), promptFromArgs(system, args), m)
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "", "system prompt")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(comparator.ModeBoth), "providers to query: groq, gemini, or both")
	return cmd
}

func (c *cli) rubricCmd() *cobra.Command {
	var system string
	cmd := &cobra.Command{
		Use:   "rubric PROMPT...",
		Short: "Compare both providers and score their answers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Rubric(cmd.Context(), promptFromArgs(system, args))
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "", "system prompt")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your five most recent comparisons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return app.History(cmd.Context())
		},
	}
}

func (c *cli) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay ID",
		Short: "Show a stored comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Replay(cmd.Context(), args[0])
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, d, cleanup, err := c.setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			var verifier server.SessionVerifier
			if cfg.JWTSecret != "" {
				v, err := auth.NewVerifier([]byte(cfg.JWTSecret))
				if err != nil {
					return err
				}
				verifier = v
			} else {
				logger.Warn("JWT_SECRET not set, all requests are anonymous")
			}

			srv := server.New(server.Config{
				Service:      d.service,
				Verifier:     verifier,
				Logger:       logger,
				Addr:         addr,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: cfg.Timeout + 30*time.Second,
			})

			app := &ServeApp{Server: srv, Logger: logger}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
