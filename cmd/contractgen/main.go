package main

import (
	"context"
	"fmt"
	"os"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-contractgen/internal/config"
	"github.com/goliatone/go-contractgen/pkg/engine"
	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/renderers/html"
	"github.com/goliatone/go-contractgen/pkg/renderers/pdf"
	"github.com/goliatone/go-contractgen/pkg/store/postgres"
)

var (
	verbose    bool
	configPath string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "contractgen",
	Short: "Generate contract documents from templates",
	Long: `contractgen manages contract templates and turns filled-in field values
into HTML, PDF, DOCX or plain text documents.

Templates use {{field.id}} placeholders. Built-in paving and sealcoating
templates are available unless seeding is disabled in the config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "contractgen.yaml", "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(contractsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// newEngine wires the engine from the loaded config. The returned cleanup
// releases the browser and the database pool.
func newEngine(ctx context.Context) (*engine.Engine, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	formatter, err := cfg.Formatter()
	if err != nil {
		return nil, nil, err
	}
	exportTimeout, err := cfg.ExportTimeout()
	if err != nil {
		return nil, nil, err
	}

	options := []engine.Option{
		engine.WithLogger(logger),
		engine.WithFormatter(formatter),
		engine.WithUnresolvedMarker(cfg.Marker()),
		engine.WithRenderOptions(cfg.RenderOptions()),
		engine.WithExportTimeout(exportTimeout),
	}

	if cfg.Theme.Dir != "" {
		themes, err := html.LoadThemes(os.DirFS(cfg.Theme.Dir))
		if err != nil {
			return nil, nil, err
		}
		options = append(options, engine.WithThemeSelector(theme.Selector{
			Registry:     themes,
			DefaultTheme: cfg.Theme.Name,
		}))
	}
	options = append(options, engine.WithTheme(cfg.Theme.Name, cfg.Theme.Variant))

	switch {
	case cfg.Templates.Dir != "":
		options = append(options, engine.WithBuiltinsFS(os.DirFS(cfg.Templates.Dir)))
	case !cfg.Templates.SeedBuiltins:
		options = append(options, engine.WithBuiltinsFS(nil))
	}

	if cfg.PDF.Enabled {
		printer := pdf.NewRodPrinter(
			pdf.WithBrowserBin(cfg.PDF.BrowserBin),
			pdf.WithControlURL(cfg.PDF.ControlURL),
			pdf.WithHeadless(cfg.PDF.Headless),
		)
		cleanups = append(cleanups, func() {
			if err := printer.Close(); err != nil {
				logger.Warn("close browser", zap.Error(err))
			}
		})
		options = append(options, engine.WithPDFPrinter(printer))
	}

	if cfg.Storage.Driver == config.StoragePostgres {
		pool, err := postgres.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
		st := postgres.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		options = append(options, engine.WithStore(st))
	}

	eng, err := engine.New(ctx, options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	unsubscribe := eng.Events().Subscribe(func(evt events.Event) {
		logger.Debug("event",
			zap.String("kind", string(evt.Kind)),
			zap.String("template_id", evt.TemplateID),
			zap.String("contract_id", evt.ContractID),
			zap.String("status", evt.Status),
		)
	})
	cleanups = append(cleanups, unsubscribe)
	return eng, cleanup, nil
}
