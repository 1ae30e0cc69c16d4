package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdfqa.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Completion.Model)
	assert.Equal(t, 1000, cfg.Index.SegmentSize)
	assert.Equal(t, 200, cfg.Index.SegmentOverlap)
	assert.Equal(t, 4, cfg.Query.TopK)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout())
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes())

	// no API key in the defaults
	assert.Error(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	chdir(t, t.TempDir()) // keep a developer's .env out of the test
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PDFQA_ADDR", ":9999")

	path := writeConfig(t, `
[embedding]
provider = "local"
dimensions = 128

[completion]
model = "gpt-4o-mini"
temperature = 0.0
retries = 2

[index]
segment_size = 500
segment_overlap = 50

[query]
top_k = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, 128, cfg.Embedding.Dimensions)
	assert.Equal(t, "sk-env", cfg.Completion.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, 0.0, cfg.Completion.Temperature)
	assert.Equal(t, 2, cfg.Completion.Retries)
	assert.Equal(t, 500, cfg.Index.SegmentSize)
	assert.Equal(t, 3, cfg.Query.TopK)
	// untouched keys keep their defaults
	assert.Equal(t, 12000, cfg.Query.MaxContextChars)
}

func TestLoad_FileKeyWinsOverEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, `
[completion]
api_key = "sk-file"
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.Completion.APIKey)
	assert.Equal(t, "sk-env", cfg.Embedding.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=sk-dotenv\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-dotenv", cfg.Completion.APIKey)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestLoad_Errors(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[index\nsegment_size = "))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Embedding.APIKey = "k"
	valid.Completion.APIKey = "k"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"unknown completion provider", func(c *Config) { c.Completion.Provider = "local" }},
		{"compat embedding without model", func(c *Config) {
			c.Embedding.Provider = ProviderCompat
			c.Embedding.Model = ""
		}},
		{"compat completion without model", func(c *Config) {
			c.Completion.Provider = ProviderCompat
			c.Completion.Model = ""
		}},
		{"temperature", func(c *Config) { c.Completion.Temperature = 3 }},
		{"segment size", func(c *Config) { c.Index.SegmentSize = 0 }},
		{"overlap", func(c *Config) { c.Index.SegmentOverlap = c.Index.SegmentSize }},
		{"top k", func(c *Config) { c.Query.TopK = 0 }},
		{"retries", func(c *Config) { c.Embedding.Retries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
