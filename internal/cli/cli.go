package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/happyhackingspace/popscore"
	"github.com/happyhackingspace/popscore/internal/banner"
	"github.com/happyhackingspace/popscore/internal/config"
	"github.com/happyhackingspace/popscore/internal/storage"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configPath  string
	initialized bool
	config      config.Config
	out         io.Writer
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, out: os.Stdout}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:          "popscore",
		Short:        "Comment popularity regression pipeline",
		Version:      c.version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")
	c.rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to config file (default popscore.yaml)")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		_ = c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newDatasetCommand())
	c.rootCmd.AddCommand(c.newFeaturesCommand())
	c.rootCmd.AddCommand(c.newTrainCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newPredictCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp loads the configuration, initializes logging and prints the banner.
func (c *CLI) initApp() error {
	if c.initialized {
		return nil
	}
	c.initialized = true

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
	return nil
}

// openStore opens the configured artifact store.
func (c *CLI) openStore() (storage.Store, error) {
	s, err := storage.Open(c.config.Store.Backend, c.config.StoreDir())
	if err != nil {
		return nil, err
	}
	slog.Debug("Store opened", "backend", c.config.Store.Backend, "dir", c.config.StoreDir())
	return s, nil
}

// withStore runs fn against the configured store and closes it afterwards.
func (c *CLI) withStore(fn func(popscore.Store) error) (err error) {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func (c *CLI) datasetConfig() popscore.DatasetConfig {
	return popscore.DatasetConfig{
		DataDir:    c.config.DataDir,
		RawFile:    c.config.RawFile,
		ReportDir:  c.config.ReportDir,
		Training:   c.config.Splits.Training,
		Validation: c.config.Splits.Validation,
		Test:       c.config.Splits.Test,
		Vocabulary: c.config.Vocabulary,
	}
}

func (c *CLI) trainConfig() popscore.TrainConfig {
	tc := popscore.DefaultTrainConfig()
	tc.Variants = c.config.Variants
	tc.ClosedForm = c.config.ClosedForm
	tc.GradientDescent = c.config.GradientDescent
	return tc
}

func (c *CLI) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
