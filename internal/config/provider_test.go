package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

const testProjectFile = `
default_network = "virtualMainnet"

[networks.virtualMainnet]
url = "${SLING_TEST_RPC_URL}"
chain_id = 1

[networks.sepolia]
url = "https://rpc.sepolia.example"
chain_id = 11155111

[compiler]
version = "0.8.28"
optimizer = true
optimizer_runs = 200
via_ir = true

[verifier]
username = "CaLIJaaa"
project = "tenderly-tests"
access_key = "${SLING_TEST_ACCESS_KEY}"
`

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, name := range []string{"PRIVATE_KEY", "SLING_PRIVATE_KEY", "TENDERLY_ACCESS_KEY", "SLING_VERIFIER_ACCESS_KEY", "SLING_RPC_URL", "SLING_NETWORK", "SLING_CHAIN_ID"} {
		t.Setenv(name, "")
	}
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func newViper(dir string) *viper.Viper {
	v := SetupViper(dir, nil)
	v.Set("project_root", dir)
	return v
}

func TestProvider(t *testing.T) {
	t.Run("loads sling.toml with env expansion", func(t *testing.T) {
		clearSecrets(t)
		t.Setenv("SLING_TEST_RPC_URL", "https://rpc.example/fork")
		t.Setenv("SLING_TEST_ACCESS_KEY", "toml-key")
		t.Setenv("PRIVATE_KEY", "0xabc123")
		dir := writeProject(t, map[string]string{ProjectFileName: testProjectFile})

		cfg, err := Provider(newViper(dir))
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.ProjectRoot)
		assert.Equal(t, filepath.Join(dir, ProjectFileName), cfg.ConfigSource)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, "virtualMainnet", cfg.Network.Name)
		assert.Equal(t, "https://rpc.example/fork", cfg.Network.RPCURL)
		assert.Equal(t, uint64(1), cfg.Network.ChainID)
		assert.Equal(t, "0xabc123", cfg.Credentials.PrivateKey)
		assert.Equal(t, "0.8.28", cfg.Compiler.Version)
		require.NotNil(t, cfg.Compiler.OptimizerEnabled)
		assert.True(t, *cfg.Compiler.OptimizerEnabled)
		require.NotNil(t, cfg.Compiler.OptimizerRuns)
		assert.Equal(t, 200, *cfg.Compiler.OptimizerRuns)
		require.NotNil(t, cfg.Compiler.ViaIR)
		assert.True(t, *cfg.Compiler.ViaIR)
		assert.Equal(t, "CaLIJaaa", cfg.Verifier.Username)
		assert.Equal(t, "tenderly-tests", cfg.Verifier.Project)
		assert.Equal(t, "toml-key", cfg.Verifier.AccessKey)
		assert.Equal(t, DefaultVerifierAPIURL, cfg.Verifier.APIURL)
		assert.Equal(t, config.OutputText, cfg.Output)
		assert.Equal(t, time.Duration(0), cfg.Timeout)
	})

	t.Run("dotenv supplies secrets", func(t *testing.T) {
		clearSecrets(t)
		os.Unsetenv("SLING_TEST_DOTENV_RPC")
		t.Cleanup(func() { os.Unsetenv("SLING_TEST_DOTENV_RPC") })
		dir := writeProject(t, map[string]string{
			".env":          "SLING_TEST_DOTENV_RPC=https://dotenv.example\n",
			ProjectFileName: "[networks.local]\nurl = \"${SLING_TEST_DOTENV_RPC}\"\n",
		})

		v := newViper(dir)
		v.Set("network", "local")
		cfg, err := Provider(v)
		require.NoError(t, err)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, "https://dotenv.example", cfg.Network.RPCURL)
		assert.Equal(t, uint64(0), cfg.Network.ChainID)
	})

	t.Run("flags override the selected network", func(t *testing.T) {
		clearSecrets(t)
		dir := writeProject(t, map[string]string{ProjectFileName: testProjectFile})

		v := newViper(dir)
		v.Set("network", "sepolia")
		v.Set("rpc_url", "https://override.example")
		v.Set("chain_id", 5)
		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Equal(t, "sepolia", cfg.Network.Name)
		assert.Equal(t, "https://override.example", cfg.Network.RPCURL)
		assert.Equal(t, uint64(5), cfg.Network.ChainID)
	})

	t.Run("rpc url without a project file", func(t *testing.T) {
		clearSecrets(t)
		dir := writeProject(t, nil)

		v := newViper(dir)
		v.Set("rpc_url", "https://rpc.example/fork")
		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Empty(t, cfg.ConfigSource)
		assert.Equal(t, "custom", cfg.Network.Name)
		assert.Equal(t, "https://rpc.example/fork", cfg.Network.RPCURL)
		assert.Empty(t, cfg.Credentials.PrivateKey)
		assert.False(t, cfg.Verifier.Configured())
	})

	t.Run("no network at all", func(t *testing.T) {
		clearSecrets(t)
		cfg, err := Provider(newViper(writeProject(t, nil)))
		require.NoError(t, err)
		assert.Nil(t, cfg.Network)
	})

	t.Run("compiler keys left out stay unset", func(t *testing.T) {
		clearSecrets(t)
		dir := writeProject(t, map[string]string{ProjectFileName: "[compiler]\noptimizer_runs = 1\n"})

		cfg, err := Provider(newViper(dir))
		require.NoError(t, err)
		assert.Empty(t, cfg.Compiler.Version)
		assert.Nil(t, cfg.Compiler.OptimizerEnabled)
		assert.Nil(t, cfg.Compiler.ViaIR)
		require.NotNil(t, cfg.Compiler.OptimizerRuns)
		assert.Equal(t, 1, *cfg.Compiler.OptimizerRuns)
	})

	t.Run("unknown network", func(t *testing.T) {
		clearSecrets(t)
		dir := writeProject(t, map[string]string{ProjectFileName: testProjectFile})

		v := newViper(dir)
		v.Set("network", "nowhere")
		_, err := Provider(v)
		assert.ErrorIs(t, err, domain.ErrInvalidEndpoint)
	})

	t.Run("sling-prefixed env wins over conventional names", func(t *testing.T) {
		clearSecrets(t)
		t.Setenv("SLING_PRIVATE_KEY", "0x01")
		t.Setenv("PRIVATE_KEY", "0x02")
		t.Setenv("TENDERLY_ACCESS_KEY", "env-key")

		cfg, err := Provider(newViper(writeProject(t, nil)))
		require.NoError(t, err)
		assert.Equal(t, "0x01", cfg.Credentials.PrivateKey)
		assert.Equal(t, "env-key", cfg.Verifier.AccessKey)
	})

	t.Run("invalid output format", func(t *testing.T) {
		clearSecrets(t)
		v := newViper(writeProject(t, nil))
		v.Set("output", "xml")
		_, err := Provider(v)
		assert.Error(t, err)
	})

	t.Run("broken project file", func(t *testing.T) {
		clearSecrets(t)
		dir := writeProject(t, map[string]string{ProjectFileName: "[networks\n"})
		_, err := Provider(newViper(dir))
		assert.Error(t, err)
	})
}

func TestSetupViperBindsFlags(t *testing.T) {
	clearSecrets(t)
	cmd := &cobra.Command{Use: "deploy"}
	cmd.Flags().String("rpc-url", "", "")
	cmd.Flags().Bool("non-interactive", false, "")
	require.NoError(t, cmd.Flags().Set("rpc-url", "https://flag.example"))
	require.NoError(t, cmd.Flags().Set("non-interactive", "true"))

	v := SetupViper(t.TempDir(), cmd)
	assert.Equal(t, "https://flag.example", v.GetString("rpc_url"))
	assert.True(t, v.GetBool("non_interactive"))
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hardhat.config.ts"), []byte("export default {}"), 0644))
	nested := filepath.Join(root, "scripts", "deploys")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	found, err := FindProjectRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
