package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "POLICY_SCANNER_CONFIG"
	httpAddrEnv    = "HTTP_ADDR"
	logLevelEnv    = "LOG_LEVEL"
	cachePathEnv   = "CACHE_PATH"
	databaseDSNEnv = "DATABASE_DSN"
	llmAPIKeyEnv   = "LLM_API_KEY"
	llmModelEnv    = "LLM_MODEL"
	llmEndpointEnv = "LLM_ENDPOINT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CacheConfig describes the durable result cache.
type CacheConfig struct {
	Path    string `yaml:"path"`
	TTLDays int    `yaml:"ttlDays"`
}

// TTL resolves the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// DatabaseConfig describes the optional Postgres history store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LLMConfig defines how to contact the remote evaluator. An empty APIKey
// selects the deterministic local fallback instead.
type LLMConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	SystemPrompt   string `yaml:"systemPrompt"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// DiscoveryConfig tunes the policy-location cascade.
type DiscoveryConfig struct {
	SearchEndpoint      string `yaml:"searchEndpoint"`
	ProbeTimeoutSeconds int    `yaml:"probeTimeoutSeconds"`
}

// ProbeTimeout resolves the per-probe deadline for path probing.
func (d DiscoveryConfig) ProbeTimeout() time.Duration {
	if d.ProbeTimeoutSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(d.ProbeTimeoutSeconds) * time.Second
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(cachePathEnv); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.LLM.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Cache.Path != "" {
		base.Cache.Path = override.Cache.Path
	}
	if override.Cache.TTLDays > 0 {
		base.Cache.TTLDays = override.Cache.TTLDays
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.TimeoutSeconds > 0 {
		base.LLM.TimeoutSeconds = override.LLM.TimeoutSeconds
	}

	if override.Discovery.SearchEndpoint != "" {
		base.Discovery.SearchEndpoint = override.Discovery.SearchEndpoint
	}
	if override.Discovery.ProbeTimeoutSeconds > 0 {
		base.Discovery.ProbeTimeoutSeconds = override.Discovery.ProbeTimeoutSeconds
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8000"},
		Logging: LoggingConfig{Level: "info"},
		Cache:   CacheConfig{Path: "cache.json", TTLDays: 30},
		LLM: LLMConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Discovery: DiscoveryConfig{ProbeTimeoutSeconds: 3},
	}
}
