package daemonconfig

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds resolved daemon settings: defaults, then an optional yaml
// file, then MASKD_* environment overrides, in that order.
type Config struct {
	RPCAddr   string
	StatePath string
	Metrics   bool
	Consent   string
	RateLimit RateLimitConfig
}

// FileConfig is the yaml shape of maskd.yaml. Bool knobs are pointers so
// an explicit false in the file is distinguishable from unset.
type FileConfig struct {
	RPCAddr   string          `yaml:"rpcAddr"`
	StatePath string          `yaml:"statePath"`
	Metrics   *bool           `yaml:"metrics"`
	Consent   string          `yaml:"consent"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

type RateLimitConfig struct {
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	IdleTTL time.Duration `yaml:"idleTTL"`
}

const (
	// ConsentAuto approves every link prompt without asking.
	ConsentAuto = "auto"
	// ConsentDeny declines every link prompt.
	ConsentDeny = "deny"
)

func Default() Config {
	return Config{
		RPCAddr:   "127.0.0.1:8797",
		StatePath: "maskd-state.bin",
		Metrics:   true,
		Consent:   ConsentAuto,
		RateLimit: RateLimitConfig{
			RPS:     20,
			Burst:   40,
			IdleTTL: 10 * time.Minute,
		},
	}
}

// LoadFromPath reads a config file if one is found and layers env
// overrides on top. A missing or malformed file falls back to defaults.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/maskd.yaml",
			"configs/maskd.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src FileConfig) {
	if src.RPCAddr != "" {
		dst.RPCAddr = src.RPCAddr
	}
	if src.StatePath != "" {
		dst.StatePath = src.StatePath
	}
	if src.Metrics != nil {
		dst.Metrics = *src.Metrics
	}
	if src.Consent != "" {
		dst.Consent = src.Consent
	}
	if src.RateLimit.RPS != 0 {
		dst.RateLimit.RPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst != 0 {
		dst.RateLimit.Burst = src.RateLimit.Burst
	}
	if src.RateLimit.IdleTTL != 0 {
		dst.RateLimit.IdleTTL = src.RateLimit.IdleTTL
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if addr := strings.TrimSpace(os.Getenv("MASKD_RPC_ADDR")); addr != "" {
		cfg.RPCAddr = addr
	}
	if path := strings.TrimSpace(os.Getenv("MASKD_STATE_PATH")); path != "" {
		cfg.StatePath = path
	}
	if mode := strings.TrimSpace(os.Getenv("MASKD_CONSENT")); mode != "" {
		cfg.Consent = strings.ToLower(mode)
	}
	if raw := strings.TrimSpace(os.Getenv("MASKD_METRICS")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Metrics = v
		}
	}
	if raw := strings.TrimSpace(os.Getenv("MASKD_RATE_LIMIT_RPS")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.RateLimit.RPS = v
		}
	}
	if raw := strings.TrimSpace(os.Getenv("MASKD_RATE_LIMIT_BURST")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.RateLimit.Burst = v
		}
	}
}
