// Package config loads and validates the bot configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Telegram  Telegram  `yaml:"telegram"`
	Discovery Discovery `yaml:"discovery"`
	Filters   Filters   `yaml:"filters"`
	Wallet    Wallet    `yaml:"wallet"`
	Storage   Storage   `yaml:"storage"`
	Analytics Analytics `yaml:"analytics"`
	Metrics   Metrics   `yaml:"metrics"`
	Logging   Logging   `yaml:"logging"`
}

// Telegram holds bot credentials and the admin-extraction toggle.
type Telegram struct {
	BotToken        string `yaml:"bot_token"`
	ChannelID       int64  `yaml:"channel_id"`
	AdminExtraction bool   `yaml:"admin_extraction"`
}

// Discovery controls the DexScreener polling pipeline.
type Discovery struct {
	BaseURL              string   `yaml:"base_url"`
	TrackedChains        []string `yaml:"tracked_chains"`
	PollInterval         Duration `yaml:"poll_interval"`
	MaxTokenAge          Duration `yaml:"max_token_age"`
	MaxProfilesPerPoll   int      `yaml:"max_profiles_per_poll"`
	FairChainSampling    bool     `yaml:"fair_chain_sampling"`
	PairFetchConcurrency int      `yaml:"pair_fetch_concurrency"`
}

// Filters are the hard qualification filters. AllowTestLeads disables
// all of them for test traffic.
type Filters struct {
	RequireTelegram     bool `yaml:"require_telegram"`
	RequireVisibleAdmin bool `yaml:"require_visible_admin"`
	RejectHiddenAdmins  bool `yaml:"reject_hidden_admins"`
	RegisterSkipped     bool `yaml:"register_skipped"`
	AllowTestLeads      bool `yaml:"allow_test_leads"`
	StrictSocial        bool `yaml:"strict_social_validation"`
}

// Wallet configures deployer lookup per chain.
type Wallet struct {
	Enabled      bool   `yaml:"enabled"`
	EtherscanKey string `yaml:"etherscan_api_key"`
	BasescanKey  string `yaml:"basescan_api_key"`
	BscscanKey   string `yaml:"bscscan_api_key"`
	SolanaRPCURL string `yaml:"solana_rpc_url"`
}

// Storage selects the durable lead store backend.
type Storage struct {
	Backend string `yaml:"backend"` // "sqlite" or "postgres"
	Path    string `yaml:"path"`    // sqlite file path
	DSN     string `yaml:"dsn"`     // postgres DSN
}

// Analytics configures the optional ClickHouse outcome sink.
type Analytics struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Metrics configures the Prometheus exposition endpoint.
type Metrics struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// Logging configures zerolog output.
type Logging struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration defaults applied before the file is
// decoded.
func Default() *Config {
	return &Config{
		Discovery: Discovery{
			BaseURL:              "https://api.dexscreener.com",
			TrackedChains:        []string{"ethereum", "bsc", "base", "solana"},
			PollInterval:         Duration(30 * time.Second),
			MaxTokenAge:          Duration(15 * time.Minute),
			MaxProfilesPerPoll:   30,
			FairChainSampling:    true,
			PairFetchConcurrency: 8,
		},
		Filters: Filters{
			RequireTelegram: true,
			RegisterSkipped: true,
		},
		Wallet: Wallet{
			SolanaRPCURL: "https://api.mainnet-beta.solana.com",
		},
		Storage: Storage{
			Backend: "sqlite",
			Path:    "data/leads.db",
		},
		Logging: Logging{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads, decodes and validates the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML config document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChannelID == 0 {
		return fmt.Errorf("telegram.channel_id is required")
	}
	if len(c.Discovery.TrackedChains) == 0 {
		return fmt.Errorf("discovery.tracked_chains must not be empty")
	}
	if c.Discovery.PollInterval.D() <= 0 {
		return fmt.Errorf("discovery.poll_interval must be positive")
	}
	if c.Discovery.MaxTokenAge.D() <= 0 {
		return fmt.Errorf("discovery.max_token_age must be positive")
	}
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("storage.backend must be sqlite or postgres, got %q", c.Storage.Backend)
	}
	if c.Analytics.Enabled && c.Analytics.DSN == "" {
		return fmt.Errorf("analytics.dsn is required when analytics is enabled")
	}
	return nil
}

func (c *Config) normalize() {
	for i, chain := range c.Discovery.TrackedChains {
		c.Discovery.TrackedChains[i] = strings.ToLower(strings.TrimSpace(chain))
	}
	if c.Discovery.MaxProfilesPerPoll < 1 {
		c.Discovery.MaxProfilesPerPoll = 1
	}
	if c.Discovery.PairFetchConcurrency < 1 {
		c.Discovery.PairFetchConcurrency = 1
	}
}

// EnforceFilters reports whether hard filters apply; the test-traffic
// override turns them all off.
func (c *Config) EnforceFilters() bool {
	return !c.Filters.AllowTestLeads
}
