package assistant

import (
	"quicksearch/internal/catalog"
	"quicksearch/internal/config"
	"quicksearch/internal/engine"
	"quicksearch/internal/speech"
	"quicksearch/internal/view"
	"quicksearch/internal/voice"

	"github.com/benbjohnson/clock"
)

// Options wires a Widget. Zero fields fall back to defaults.
type Options struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Prefs      view.OnboardingStore
	Clock      clock.Clock
	Recognizer speech.Recognizer
	// IDs mints message ids; defaults to random UUIDs.
	IDs func() string
}

func (o Options) withDefaults() Options {
	if o.Config == nil {
		o.Config = config.DefaultConfig()
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Recognizer == nil {
		o.Recognizer = speech.NewSimulator(
			speech.WithClock(o.Clock),
			speech.WithSilenceTimeout(o.Config.GetSilenceTimeout()),
		)
	}
	return o
}

func engineDelays(cfg *config.Config) engine.Delays {
	return engine.Delays{
		Text:          cfg.GetTextDelay(),
		ChatProducts:  cfg.GetChatProductsDelay(),
		VoiceProducts: cfg.GetVoiceProductsDelay(),
	}
}

func voiceConfig(cfg *config.Config) voice.Config {
	vc := voice.DefaultConfig()
	if cfg.Voice.Greeting != "" {
		vc.Greeting = cfg.Voice.Greeting
	}
	if len(cfg.Voice.Questions) > 0 {
		vc.Questions = append([]string(nil), cfg.Voice.Questions...)
	}
	vc.GenerateDelay = cfg.GetGenerateDelay()
	vc.ProcessingDelay = cfg.GetProcessingDelay()
	return vc
}
