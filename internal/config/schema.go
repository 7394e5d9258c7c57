package config

// Config holds fichegen configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Guides    GuidesCfg              `mapstructure:"guides" yaml:"guides"`
}

// ProviderCfg configures a generative-model provider.
type ProviderCfg struct {
	Type          string `mapstructure:"type" yaml:"type"`                     // "gemini", "openai"
	Model         string `mapstructure:"model" yaml:"model"`                   // Primary model name
	FallbackModel string `mapstructure:"fallback_model" yaml:"fallback_model"` // Used when the primary fails
	APIKey        string `mapstructure:"api_key" yaml:"api_key"`               // API key (supports ${ENV_VAR} syntax)
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`             // Optional endpoint override (openai type)
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies resolution and generation defaults.
type DefaultsCfg struct {
	Provider            string  `mapstructure:"provider" yaml:"provider"`                           // Default LLM provider name
	Temperature         float64 `mapstructure:"temperature" yaml:"temperature"`                     // Generation temperature [0,1]
	TocScanPages        int     `mapstructure:"toc_scan_pages" yaml:"toc_scan_pages"`               // Front-matter pages scanned for the ToC
	FallbackSpanPages   int     `mapstructure:"fallback_span_pages" yaml:"fallback_span_pages"`     // Assumed lesson span when the ToC lacks an end boundary
	EnableModelFallback bool    `mapstructure:"enable_model_fallback" yaml:"enable_model_fallback"` // Retry with the fallback model on failure
	CorrectTopics       bool    `mapstructure:"correct_topics" yaml:"correct_topics"`               // AI spelling/accent correction of user topics
}

// GuidesCfg locates the source PDFs.
type GuidesCfg struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`                       // Teacher-guide directory (default: {home}/guides)
	TextbookDir  string `mapstructure:"textbook_dir" yaml:"textbook_dir"`     // Student-textbook directory (optional)
	UseTextbook  bool   `mapstructure:"use_textbook" yaml:"use_textbook"`     // Also extract matching textbook pages
	CacheRootDir string `mapstructure:"cache_root_dir" yaml:"cache_root_dir"` // Overrides where toc_cache lives (default: guides dir)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"gemini": {
				Type:          "gemini",
				Model:         "gemini-2.5-pro",
				FallbackModel: "gemini-2.5-flash",
				APIKey:        "${GEMINI_API_KEY}",
				Enabled:       true,
			},
			"openai": {
				Type:          "openai",
				Model:         "gpt-4o",
				FallbackModel: "gpt-4o-mini",
				APIKey:        "${OPENAI_API_KEY}",
				Enabled:       false,
			},
		},
		Defaults: DefaultsCfg{
			Provider:            "gemini",
			Temperature:         0.5,
			TocScanPages:        5,
			FallbackSpanPages:   3,
			EnableModelFallback: true,
			CorrectTopics:       true,
		},
		Guides: GuidesCfg{},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// DefaultProvider returns the configured default provider, or an empty
// config if none is set.
func (c *Config) DefaultProvider() (string, ProviderCfg, bool) {
	name := c.Defaults.Provider
	p, ok := c.Providers[name]
	return name, p, ok
}
