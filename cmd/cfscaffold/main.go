package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"cfscaffold/internal/config"
	"cfscaffold/internal/generator"
	"cfscaffold/internal/logging"
	"cfscaffold/internal/pipeline"
	"cfscaffold/internal/scraper"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	lang       string
	useBrowser bool
	noCache    bool

	// Loaded configuration, flags applied
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd scaffolds a whole contest
var rootCmd = &cobra.Command{
	Use:   "cfscaffold <contest-id> <output-root>",
	Short: "Scaffold a practice workspace for a Codeforces contest",
	Long: `cfscaffold fetches the problem list of a contest, extracts the sample
tests from every problem statement and writes one project per problem to
<output-root>/<contest-id>/<index>, with the samples as ready-to-run tests.

The contest directory must not exist yet.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}

		// Initialize logger
		zc := zap.NewProductionConfig()
		zc.Encoding = c.Logging.Encoding
		if lvl, err := zapcore.ParseLevel(c.Logging.Level); err == nil {
			zc.Level = zap.NewAtomicLevelAt(lvl)
		}
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		runID := logging.Initialize(logger)
		logging.BootDebug("run %s, config %s, language %s", runID, configPath, c.Generate.Language)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runScaffold,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVarP(&lang, "lang", "l", "", "Template set for generated projects (go, rust)")
	rootCmd.PersistentFlags().BoolVar(&useBrowser, "browser", false, "Load problem pages through headless Chrome")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the page cache")

	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ensureConfig loads the config file once and applies the flag overrides.
func ensureConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if lang != "" {
		c.Generate.Language = lang
	}
	if useBrowser {
		c.Browser.Enabled = true
	}
	if noCache {
		c.Cache.Enabled = false
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := generator.Lookup(c.Generate.Language); err != nil {
		return nil, fmt.Errorf("invalid language: %w", err)
	}

	cfg = c
	return cfg, nil
}

func parseContestID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contest id %q: must be a positive integer", s)
	}
	return id, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runScaffold executes the fetch, scrape and generate pipeline.
func runScaffold(cmd *cobra.Command, args []string) error {
	contestID, err := parseContestID(args[0])
	if err != nil {
		return err
	}
	c, err := ensureConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	client := newClient(c)
	src, closeSource := newPageSource(ctx, c, client)
	defer closeSource()

	gen, err := generator.New(c.Generate.Language, generator.WithURLFunc(client.ProblemURL))
	if err != nil {
		return err
	}
	scr := scraper.New(src, client.ProblemURL, scraper.WithKeepMarkup(c.Scrape.KeepMarkup))

	runner := pipeline.NewRunner(client, scr, gen, cmd.OutOrStdout())
	res, err := runner.Run(ctx, contestID, args[1])
	if err != nil {
		return err
	}

	logging.Boot("contest %d (%s): %d projects written to %s",
		res.Contest.ID, res.Contest.Name, len(res.Skeletons), res.Dir)
	return nil
}
