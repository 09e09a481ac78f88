package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// ProjectFileName is the optional per-project configuration file
const ProjectFileName = "sling.toml"

// loadEnvFiles loads .env files from the project root. Variables already set in the
// process environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadProjectFile decodes sling.toml and expands ${VAR} references in its string values.
// A missing file yields an empty configuration and an empty source.
func loadProjectFile(projectRoot string) (*config.ProjectFile, string, error) {
	path := filepath.Join(projectRoot, ProjectFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config.ProjectFile{}, "", nil
	}

	var raw config.ProjectFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}

	expanded := &config.ProjectFile{
		DefaultNetwork: os.ExpandEnv(raw.DefaultNetwork),
		Networks:       make(map[string]config.NetworkEntry, len(raw.Networks)),
		Compiler:       raw.Compiler,
		Verifier: config.VerifierEntry{
			APIURL:           os.ExpandEnv(raw.Verifier.APIURL),
			Username:         os.ExpandEnv(raw.Verifier.Username),
			Project:          os.ExpandEnv(raw.Verifier.Project),
			AccessKey:        os.ExpandEnv(raw.Verifier.AccessKey),
			VirtualNetworkID: os.ExpandEnv(raw.Verifier.VirtualNetworkID),
		},
	}
	expanded.Compiler.Version = os.ExpandEnv(raw.Compiler.Version)

	for name, entry := range raw.Networks {
		expanded.Networks[name] = config.NetworkEntry{
			URL:     os.ExpandEnv(entry.URL),
			ChainID: entry.ChainID,
		}
	}

	return expanded, path, nil
}
