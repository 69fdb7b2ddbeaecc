package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDelays is returned by Validate when the scenario delays are not
// ordered text < chat-products < voice-products.
var ErrInvalidDelays = errors.New("engine delays must satisfy text < chat_products < voice_products")

// Config holds all quicksearch configuration.
type Config struct {
	Name string `yaml:"name"`

	// Scenario engine timing
	Engine EngineConfig `yaml:"engine"`

	// Voice interview script and timing
	Voice VoiceConfig `yaml:"voice"`

	// Cart toasts
	Cart CartConfig `yaml:"cart"`

	// Product catalog source
	Catalog CatalogConfig `yaml:"catalog"`

	Logging LoggingConfig `yaml:"logging"`

	UI UIConfig `yaml:"ui"`
}

// EngineConfig configures the simulated response delays.
type EngineConfig struct {
	TextDelay          string `yaml:"text_delay"`
	ChatProductsDelay  string `yaml:"chat_products_delay"`
	VoiceProductsDelay string `yaml:"voice_products_delay"`
}

// VoiceConfig configures the scripted voice interview.
type VoiceConfig struct {
	Greeting        string   `yaml:"greeting"`
	Questions       []string `yaml:"questions"`
	GenerateDelay   string   `yaml:"generate_delay"`
	ProcessingDelay string   `yaml:"processing_delay"`
	SilenceTimeout  string   `yaml:"silence_timeout"`
}

// CartConfig configures cart toasts.
type CartConfig struct {
	ToastTTL  string `yaml:"toast_ttl"`
	MaxToasts int    `yaml:"max_toasts"`
}

// CatalogConfig points at an optional external catalog file.
// An empty Path uses the built-in catalog.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "quicksearch",

		Engine: EngineConfig{
			TextDelay:          "900ms",
			ChatProductsDelay:  "2200ms",
			VoiceProductsDelay: "3500ms",
		},

		Voice: VoiceConfig{
			Greeting: "Hello, what are you looking for today?",
			Questions: []string{
				"Question 1: Do you prefer cream or gel?",
				"Question 2: Any allergies?",
				"Question 3: Do you shop online or in store?",
			},
			GenerateDelay:   "2s",
			ProcessingDelay: "3s",
			SilenceTimeout:  "4s",
		},

		Cart: CartConfig{
			ToastTTL:  "3400ms",
			MaxToasts: 3,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
			Format:    "text",
		},

		UI: UIConfig{
			Theme: ThemeAuto,
		},
	}
}

// DefaultConfigPath returns the config file location for a workspace.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(workspace, ".quicksearch", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("QUICKSEARCH_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
	switch strings.ToLower(os.Getenv("QUICKSEARCH_DEBUG")) {
	case "1", "true", "yes":
		c.Logging.DebugMode = true
	case "0", "false", "no":
		c.Logging.DebugMode = false
	}
	if theme := os.Getenv("QUICKSEARCH_THEME"); theme != "" {
		c.UI.Theme = Theme(strings.ToLower(theme))
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// GetTextDelay returns the delay for text-target resolutions.
func (c *Config) GetTextDelay() time.Duration {
	return parseDuration(c.Engine.TextDelay, 900*time.Millisecond)
}

// GetChatProductsDelay returns the delay for chat-sourced product searches.
func (c *Config) GetChatProductsDelay() time.Duration {
	return parseDuration(c.Engine.ChatProductsDelay, 2200*time.Millisecond)
}

// GetVoiceProductsDelay returns the delay for voice-sourced product searches.
func (c *Config) GetVoiceProductsDelay() time.Duration {
	return parseDuration(c.Engine.VoiceProductsDelay, 3500*time.Millisecond)
}

// GetGenerateDelay returns how long the voice controller "thinks" before asking the next question.
func (c *Config) GetGenerateDelay() time.Duration {
	return parseDuration(c.Voice.GenerateDelay, 2*time.Second)
}

// GetProcessingDelay returns how long the voice screen shows the generating state after the interview.
func (c *Config) GetProcessingDelay() time.Duration {
	return parseDuration(c.Voice.ProcessingDelay, 3*time.Second)
}

// GetSilenceTimeout returns the speech auto-stop window.
func (c *Config) GetSilenceTimeout() time.Duration {
	return parseDuration(c.Voice.SilenceTimeout, 4*time.Second)
}

// GetToastTTL returns the toast auto-dismiss duration.
func (c *Config) GetToastTTL() time.Duration {
	return parseDuration(c.Cart.ToastTTL, 3400*time.Millisecond)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	text, chatProducts, voiceProducts := c.GetTextDelay(), c.GetChatProductsDelay(), c.GetVoiceProductsDelay()
	if !(text < chatProducts && chatProducts < voiceProducts) {
		return fmt.Errorf("%w (got %s, %s, %s)", ErrInvalidDelays, text, chatProducts, voiceProducts)
	}
	if c.Cart.MaxToasts < 1 {
		return fmt.Errorf("cart.max_toasts must be at least 1, got %d", c.Cart.MaxToasts)
	}
	if len(c.Voice.Questions) == 0 {
		return fmt.Errorf("voice.questions must not be empty")
	}
	if !c.UI.Theme.Valid() {
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}
	return nil
}
