package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/cli/render"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var (
		txHash       string
		name         string
		artifactPath string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an already deployed contract",
		Long: `Verify a contract from its creation transaction. The receipt is fetched from the
configured network and the contract source is submitted for verification. Compiler
settings come from the compiled artifact when it is found, with [compiler] in
sling.toml taking precedence.

Examples:
  sling verify --tx 0xabc... --name contracts/Counter.sol:Counter --network sepolia
  sling verify --tx 0xabc... --name src/Counter.sol:Counter --artifact out/Counter.sol/Counter.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if txHash == "" {
				return fmt.Errorf("--tx is required")
			}

			outcome, runErr := app.VerifyContract.Run(cmd.Context(), usecase.VerifyParams{
				TransactionHash: txHash,
				QualifiedName:   name,
				ArtifactRef:     artifactPath,
				Network:         app.Config.Network,
				Verifier:        app.Config.Verifier,
				Compiler:        app.Config.Compiler,
			})

			var verr *usecase.VerificationError
			if runErr != nil && !errors.As(runErr, &verr) {
				return runErr
			}

			renderer := render.NewDeployRenderer(cmd.OutOrStdout(), app.Config.Output)
			if err := renderer.RenderVerify(outcome); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&txHash, "tx", "", "Hash of the contract creation transaction")
	cmd.Flags().StringVar(&name, "name", "", "Fully qualified contract name, e.g. contracts/Foo.sol:Foo")
	cmd.Flags().StringVar(&artifactPath, "artifact", "", "Compiled artifact to read compiler settings from (default derived from --name)")

	return cmd
}
