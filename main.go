package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/samuelfneumann/autolearn/config"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/environment/envconfig"
	"github.com/samuelfneumann/autolearn/experiment"
	"github.com/samuelfneumann/autolearn/generator"
)

var (
	verbose bool
	logger  *zap.Logger

	configPath string

	variant    string
	envName    string
	continuous bool
)

var rootCmd = &cobra.Command{
	Use:   "autolearn",
	Short: "Train reinforcement learning agents from hyperparameter sets",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := zap.NewProductionConfig()
		if verbose {
			c.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = c.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Train an agent as described by a run configuration",
	Long: `Trains an agent in an environment for the configured number of epochs,
evaluating it after every epoch. The evaluation history is printed as
JSON when the run ends.

Interrupting the command stops training at the next epoch boundary.`,
	RunE: runTraining,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the default hyperparameters of a variant for an environment",
	RunE:  printSchema,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	runCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"YAML run configuration, defaults are used if empty")

	schemaCmd.Flags().StringVar(&variant, "variant",
		string(generator.ValueBased), "algorithm variant")
	schemaCmd.Flags().StringVar(&envName, "env", string(envconfig.Cartpole),
		"environment name")
	schemaCmd.Flags().BoolVar(&continuous, "continuous", false,
		"use continuous actions")

	rootCmd.AddCommand(runCmd, schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTraining(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	r := config.Default()
	if configPath != "" {
		var err error
		if r, err = config.Load(configPath); err != nil {
			return err
		}
	}

	env, err := r.NewEnvironment()
	if err != nil {
		return err
	}
	o, release, err := r.NewOrchestrator(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	if err := o.Instantiate(environment.Describe(env)); err != nil {
		return err
	}
	res := o.Run(ctx, env)
	if res.Err != nil {
		return res.Err
	}
	return printJSON(cmd.OutOrStdout(), struct {
		RunID     string             `json:"run_id"`
		Variant   generator.Variant  `json:"variant"`
		Cancelled bool               `json:"cancelled"`
		History   []experiment.Point `json:"history"`
	}{res.RunID, res.Variant, res.Cancelled, res.History.Summary()})
}

func printSchema(cmd *cobra.Command, args []string) error {
	v, err := generator.ParseVariant(variant)
	if err != nil {
		return err
	}

	c := envconfig.NewConfig(envconfig.EnvName(envName),
		envconfig.DefaultTask(envconfig.EnvName(envName)), continuous, 500,
		0.99)
	env, err := c.Create(0)
	if err != nil {
		return err
	}

	o, err := experiment.New(v, experiment.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := o.Instantiate(environment.Describe(env)); err != nil {
		return err
	}
	params, err := o.Params()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), params)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
