package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/cli/render"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		name       string
		args       []string
		skipVerify bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "deploy [artifact|contract]",
		Short: "Deploy a compiled contract and verify it",
		Long: `Deploy a single compiled contract, wait for its confirmation and verify its source.

The artifact can be given as a path to the JSON artifact, as a bare contract name
looked up under artifacts/ and out/, or derived from --name.

Examples:
  sling deploy --name contracts/Counter.sol:Counter --network sepolia
  sling deploy artifacts/contracts/Token.sol/Token.json --name contracts/Token.sol:Token --arg 1000000
  sling deploy Counter --skip-verify --rpc-url http://127.0.0.1:8545
  sling deploy Counter --name src/Counter.sol:Counter --output json --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.DeployParams{
				QualifiedName:   name,
				ConstructorArgs: args,
				Network:         app.Config.Network,
				Credentials:     app.Config.Credentials,
				Verifier:        app.Config.Verifier,
				Compiler:        app.Config.Compiler,
				SkipVerify:      skipVerify,
				AssumeYes:       yes || app.Config.AssumeYes,
			}
			if len(positional) > 0 {
				params.ArtifactRef = positional[0]
			}

			outcome, runErr := app.DeployContract.Run(cmd.Context(), params)

			// A failed verification still reports the confirmed deployment
			var verr *usecase.VerificationError
			if runErr != nil && !errors.As(runErr, &verr) {
				return runErr
			}

			renderer := render.NewDeployRenderer(cmd.OutOrStdout(), app.Config.Output)
			if err := renderer.RenderDeploy(outcome); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Fully qualified contract name, e.g. contracts/Foo.sol:Foo")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "Constructor argument, in ABI order (repeatable)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Deploy without verifying")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
