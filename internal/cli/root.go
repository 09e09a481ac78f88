package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/sling/internal/adapters/progress"
	"github.com/trebuchet-org/sling/internal/app"
	"github.com/trebuchet-org/sling/internal/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sling",
		Short: "Deploy a compiled contract and verify it on Tenderly",
		Long: `Sling deploys a single compiled contract artifact (Hardhat or Foundry) to an
EVM network, waits for confirmation and submits its source to Tenderly for verification.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			// Set up viper; every flag of the command is bound
			v := config.SetupViper(projectRoot, cmd)
			if isNonInteractive() {
				v.Set("non_interactive", true)
			}

			sink := newProgressSink(v)

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				releaseAfterRun(cmd, cancel)
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts and spinners")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network from sling.toml [networks] to use")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC endpoint URL (overrides the network's url)")
	rootCmd.PersistentFlags().Uint64("chain-id", 0, "Expected chain ID (0 asks the node)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort network operations after this long (0 waits indefinitely)")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text, json or yaml")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	verifyCmd := NewVerifyCmd()
	verifyCmd.GroupID = "main"
	rootCmd.AddCommand(verifyCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// releaseAfterRun calls release when the command's run function returns,
// including when it fails. PostRun hooks are skipped on error.
func releaseAfterRun(cmd *cobra.Command, release func()) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer release()
			return run(cmd, args)
		}
		return
	}
	if run := cmd.Run; run != nil {
		cmd.Run = func(cmd *cobra.Command, args []string) {
			defer release()
			run(cmd, args)
		}
		return
	}
	release()
}

// newProgressSink picks the spinner reporter for terminals and plain lines otherwise.
// Progress always goes to stderr so stdout carries only the result. Scripted runs
// asking for structured output get no progress at all.
func newProgressSink(v *viper.Viper) usecase.ProgressSink {
	nonInteractive := v.GetBool("non_interactive")
	if nonInteractive && !strings.EqualFold(v.GetString("output"), "text") {
		return progress.NewNopSink()
	}
	interactive := !nonInteractive && isatty.IsTerminal(os.Stderr.Fd())
	return progress.NewReporter(os.Stderr, interactive)
}

// isNonInteractive detects environments where nobody can answer a prompt
func isNonInteractive() bool {
	return os.Getenv("CI") == "true" ||
		os.Getenv("NO_COLOR") != "" ||
		!isatty.IsTerminal(os.Stdin.Fd())
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
