package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDirDefaults(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, DefaultRepoTimeout, cfg.RepoTimeout)
	assert.Equal(t, DefaultStatementTimeout, cfg.StatementTimeout)
}

func TestLoadFromDirYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
input: ./dumps
output_dir: results
workers: 3
repo_timeout: 30s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yaml), 0o600))

	cfg, err := LoadFromDir(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "./dumps", cfg.Input)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.RepoTimeout)
}

func TestLoadFromDirYMLFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte("workers: 2\n"), 0o600))

	cfg, err := LoadFromDir(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("workers: 3\noutput_dir: from-file\n"), 0o600))

	t.Setenv("SCHEMALIFT_WORKERS", "7")
	t.Setenv("SCHEMALIFT_OUTPUT_DIR", "from-env")

	cfg, err := LoadFromDir(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "from-env", cfg.OutputDir)
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("input", "", "")
	fs.String("output-dir", "", "")
	fs.String("state", "", "")
	fs.Int("workers", 0, "")
	fs.Duration("repo-timeout", 0, "")
	return fs
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SCHEMALIFT_WORKERS", "7")

	fs := testFlags()
	require.NoError(t, fs.Set("workers", "9"))
	require.NoError(t, fs.Set("output-dir", "flag-out"))

	cfg, err := LoadFromDir(t.TempDir(), fs)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Workers)
	assert.Equal(t, "flag-out", cfg.OutputDir)
}

func TestLoadUnchangedFlagsIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("workers: 5\n"), 0o600))

	// A registered flag left at its zero default must not clobber the file.
	cfg, err := LoadFromDir(dir, testFlags())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
}

func TestLoadStateFlagMapsToStatePath(t *testing.T) {
	fs := testFlags()
	require.NoError(t, fs.Set("state", "/tmp/custom.db"))

	cfg, err := LoadFromDir(t.TempDir(), fs)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.StatePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"input set", Config{Input: "./dumps"}, false},
		{"manifest set", Config{Manifest: "m.tsv"}, false},
		{"neither", Config{}, true},
		{"negative workers", Config{Input: "x", Workers: -1}, true},
		{"negative max repos", Config{Input: "x", MaxRepos: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
