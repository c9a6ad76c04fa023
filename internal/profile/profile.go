package profile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol).
	LLMProvider string // Provider identifier: openai, deepseek, ollama, ...
	LLMAPIKey   string
	LLMBaseURL  string // Optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // Request timeout in seconds (default: 120)

	// Embedding configuration.
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Scheduling defaults.
	Timezone         string // Default IANA timezone for formatting confirmations
	WorkdayStartHour int    // Start of the working-hours window (default 9)
	WorkdayEndHour   int    // End of the working-hours window (default 18)

	Mode    string // dev, demo, prod
	Addr    string
	Port    int
	Driver  string // postgres, memory
	DSN     string
	Version string
}

// Provider default base URLs, used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// AIEnabled reports whether LLM-backed features can be initialized.
func (p *Profile) AIEnabled() bool {
	return p.LLMProvider != "" && p.LLMAPIKey != ""
}

// FromEnv overlays environment variables onto the profile.
// Environment always wins over flag defaults so that systemd/container
// deployments can configure the instance without a command line.
func (p *Profile) FromEnv() {
	if v := os.Getenv("COACHDESK_LLM_PROVIDER"); v != "" {
		p.LLMProvider = strings.ToLower(v)
	}
	if v := os.Getenv("COACHDESK_LLM_API_KEY"); v != "" {
		p.LLMAPIKey = v
	}
	if v := os.Getenv("COACHDESK_LLM_BASE_URL"); v != "" {
		p.LLMBaseURL = v
	}
	if v := os.Getenv("COACHDESK_LLM_MODEL"); v != "" {
		p.LLMModel = v
	}
	if v := os.Getenv("COACHDESK_LLM_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.LLMTimeout = n
		}
	}
	if v := os.Getenv("COACHDESK_EMBEDDING_API_KEY"); v != "" {
		p.EmbeddingAPIKey = v
	}
	if v := os.Getenv("COACHDESK_EMBEDDING_BASE_URL"); v != "" {
		p.EmbeddingBaseURL = v
	}
	if v := os.Getenv("COACHDESK_EMBEDDING_MODEL"); v != "" {
		p.EmbeddingModel = v
	}
	if v := os.Getenv("COACHDESK_EMBEDDING_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.EmbeddingDimensions = n
		}
	}
	if v := os.Getenv("COACHDESK_TIMEZONE"); v != "" {
		p.Timezone = v
	}
	if v := os.Getenv("COACHDESK_DRIVER"); v != "" {
		p.Driver = v
	}
	if v := os.Getenv("COACHDESK_DSN"); v != "" {
		p.DSN = v
	}

	p.applyDefaults()
}

func (p *Profile) applyDefaults() {
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = 120
	}
	if p.EmbeddingModel == "" {
		p.EmbeddingModel = "text-embedding-3-small"
	}
	if p.EmbeddingDimensions <= 0 {
		p.EmbeddingDimensions = 1536
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if p.WorkdayStartHour <= 0 {
		p.WorkdayStartHour = 9
	}
	if p.WorkdayEndHour <= 0 {
		p.WorkdayEndHour = 18
	}

	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

// Validate checks the profile for misconfiguration that would prevent startup.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	switch p.Driver {
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn required for postgres driver")
		}
	case "memory":
		// No DSN needed; volatile, intended for dev and tests.
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.WorkdayStartHour >= p.WorkdayEndHour {
		return errors.Errorf("workday start hour %d must be before end hour %d", p.WorkdayStartHour, p.WorkdayEndHour)
	}
	return nil
}

func (p *Profile) String() string {
	return fmt.Sprintf("mode=%s addr=%s port=%d driver=%s llm=%s/%s", p.Mode, p.Addr, p.Port, p.Driver, p.LLMProvider, p.LLMModel)
}
