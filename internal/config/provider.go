package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
)

// DefaultVerifierAPIURL is used when [verifier] api_url is not set
const DefaultVerifierAPIURL = "https://api.tenderly.co"

// projectMarkers identify the root of a contracts project, in lookup order
var projectMarkers = []string{
	ProjectFileName,
	"hardhat.config.ts",
	"hardhat.config.js",
	"foundry.toml",
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	// .env must be loaded before any env-backed viper key is read
	loadEnvFiles(projectRoot)

	project, source, err := loadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}

	output := config.OutputFormat(strings.ToLower(v.GetString("output")))
	switch output {
	case "":
		output = config.OutputText
	case config.OutputText, config.OutputJSON, config.OutputYAML:
	default:
		return nil, fmt.Errorf("unsupported output format %q (expected text, json or yaml)", output)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		ConfigSource:   source,
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		AssumeYes:      v.GetBool("yes"),
		Output:         output,
		Timeout:        v.GetDuration("timeout"),
		Credentials: config.Credentials{
			PrivateKey: strings.TrimSpace(v.GetString("private_key")),
		},
		Compiler: models.CompilerOverrides{
			Version:          project.Compiler.Version,
			OptimizerEnabled: project.Compiler.Optimizer,
			OptimizerRuns:    project.Compiler.OptimizerRuns,
			ViaIR:            project.Compiler.ViaIR,
			EVMVersion:       project.Compiler.EVMVersion,
		},
	}

	network, err := resolveNetwork(v, project)
	if err != nil {
		return nil, err
	}
	cfg.Network = network
	cfg.Verifier = resolveVerifier(v, project.Verifier)

	return cfg, nil
}

// resolveNetwork picks the [networks.<name>] entry and applies flag/env overrides
func resolveNetwork(v *viper.Viper, project *config.ProjectFile) (*config.Network, error) {
	name := v.GetString("network")
	if name == "" {
		name = project.DefaultNetwork
	}
	rpcURL := strings.TrimSpace(v.GetString("rpc_url"))
	chainID := v.GetUint64("chain_id")

	var network *config.Network
	if name != "" {
		entry, ok := project.Networks[name]
		switch {
		case ok:
			network = &config.Network{
				Name:    name,
				RPCURL:  entry.URL,
				ChainID: entry.ChainID,
			}
		case rpcURL == "":
			return nil, fmt.Errorf("%w: network '%s' not found in %s [networks]", domain.ErrInvalidEndpoint, name, ProjectFileName)
		default:
			network = &config.Network{Name: name}
		}
	}

	if rpcURL != "" {
		if network == nil {
			network = &config.Network{Name: "custom"}
		}
		network.RPCURL = rpcURL
	}
	if network != nil && chainID != 0 {
		network.ChainID = chainID
	}

	return network, nil
}

// resolveVerifier merges the [verifier] table with env-provided secrets
func resolveVerifier(v *viper.Viper, entry config.VerifierEntry) config.VerifierConfig {
	verifier := config.VerifierConfig{
		APIURL:           entry.APIURL,
		Username:         entry.Username,
		Project:          entry.Project,
		AccessKey:        entry.AccessKey,
		VirtualNetworkID: entry.VirtualNetworkID,
	}
	if verifier.APIURL == "" {
		verifier.APIURL = DefaultVerifierAPIURL
	}
	if key := strings.TrimSpace(v.GetString("verifier_access_key")); key != "" {
		verifier.AccessKey = key
	}
	return verifier
}

// FindProjectRoot walks up from the current directory looking for a project marker.
// Falls back to the current directory when none is found.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("SLING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Secrets come from the environment only, under the conventional names too
	_ = v.BindEnv("private_key", "SLING_PRIVATE_KEY", "PRIVATE_KEY")
	_ = v.BindEnv("verifier_access_key", "SLING_VERIFIER_ACCESS_KEY", "TENDERLY_ACCESS_KEY")

	// Set defaults
	v.SetDefault("timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("output", string(config.OutputText))
	v.SetDefault("project_root", projectRoot)

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}
