package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "quicksearch" {
		t.Errorf("expected Name=quicksearch, got %s", cfg.Name)
	}
	if len(cfg.Voice.Questions) != 3 {
		t.Errorf("expected 3 voice questions, got %d", len(cfg.Voice.Questions))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("QUICKSEARCH_CATALOG", "")
	t.Setenv("QUICKSEARCH_DEBUG", "")
	t.Setenv("QUICKSEARCH_THEME", "")

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Engine.TextDelay = "100ms"
	cfg.Cart.MaxToasts = 5
	cfg.Catalog.Path = "products.yaml"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, loaded.GetTextDelay())
	assert.Equal(t, 5, loaded.Cart.MaxToasts)
	assert.Equal(t, "products.yaml", loaded.Catalog.Path)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Engine, cfg.Engine)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.ChatProductsDelay = "5s"
	cfg.Engine.VoiceProductsDelay = "4s"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDelays))

	cfg = DefaultConfig()
	cfg.Cart.MaxToasts = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Voice.Questions = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.UI.Theme = "neon"
	assert.Error(t, cfg.Validate())
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 900*time.Millisecond, cfg.GetTextDelay())
	assert.Equal(t, 2200*time.Millisecond, cfg.GetChatProductsDelay())
	assert.Equal(t, 3500*time.Millisecond, cfg.GetVoiceProductsDelay())
	assert.Equal(t, 2*time.Second, cfg.GetGenerateDelay())
	assert.Equal(t, 3*time.Second, cfg.GetProcessingDelay())
	assert.Equal(t, 4*time.Second, cfg.GetSilenceTimeout())
	assert.Equal(t, 3400*time.Millisecond, cfg.GetToastTTL())

	cfg.Engine.TextDelay = "-1s"
	assert.Equal(t, 900*time.Millisecond, cfg.GetTextDelay())
}

func TestLoggingConfig_Options(t *testing.T) {
	lc := LoggingConfig{DebugMode: true, Level: "debug", Format: "json", Categories: map[string]bool{"cart": false}}
	opts := lc.Options()
	assert.True(t, opts.DebugMode)
	assert.True(t, opts.JSONFormat)
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, map[string]bool{"cart": false}, opts.Categories)
}
