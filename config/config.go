package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"market-analyzer/internal/market"
)

// Config is the root configuration, loaded from a JSON file with
// environment variable overrides taking precedence.
type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	LoggingConfig  LoggingConfig  `json:"logging"`
	AnalysisConfig AnalysisConfig `json:"analysis"`
	RegimeConfig   RegimeConfig   `json:"regime"`
	ScorerConfig   ScorerConfig   `json:"scorer"`
	ScannerConfig  ScannerConfig  `json:"scanner"`
	AuthConfig     AuthConfig     `json:"auth"`
	RedisConfig    RedisConfig    `json:"redis"`
	DatabaseConfig DatabaseConfig `json:"database"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ProductionMode bool   `json:"production_mode"`
	RateLimit      int    `json:"rate_limit"`        // requests per window per client
	RateWindowSecs int    `json:"rate_window_secs"`  // rate limit window in seconds
}

// LoggingConfig holds structured logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	JSONFormat bool   `json:"json_format"` // JSON output instead of console
}

// AnalysisConfig holds the analytical pipeline tunables
type AnalysisConfig struct {
	Timeframes         []string `json:"timeframes"`    // ordered low to high
	HTFTimeframe       string   `json:"htf_timeframe"` // higher-timeframe bias source
	LTFTimeframe       string   `json:"ltf_timeframe"` // lower-timeframe bias source
	SwingWindow        int      `json:"swing_window"`  // candles each side of a fractal
	FVGMinGapPercent   float64  `json:"fvg_min_gap_percent"`
	OrderBlockLookback int      `json:"order_block_lookback"`
	LiquidityTolerance float64  `json:"liquidity_tolerance"` // relative clustering tolerance
	RSIPeriod          int      `json:"rsi_period"`
	ATRPeriod          int      `json:"atr_period"`
	ADXPeriod          int      `json:"adx_period"`
	EMAFastPeriod      int      `json:"ema_fast_period"`
	EMASlowPeriod      int      `json:"ema_slow_period"`
	MACDFastPeriod     int      `json:"macd_fast_period"`
	MACDSlowPeriod     int      `json:"macd_slow_period"`
	MACDSignalPeriod   int      `json:"macd_signal_period"`
	OrderFlowWindow    int      `json:"order_flow_window"`
	LargeOrderMult     float64  `json:"large_order_mult"`
}

// RegimeConfig holds regime classification thresholds. These are
// empirically chosen tunables, not derived truths.
type RegimeConfig struct {
	TrendingADX      float64 `json:"trending_adx"`
	RangingADX       float64 `json:"ranging_adx"`
	TrendingRatio    float64 `json:"trending_ratio"`
	RangingRatio     float64 `json:"ranging_ratio"`
	VolatilePctl     float64 `json:"volatile_percentile"`
	RangeLookback    int     `json:"range_lookback"`
	PercentileWindow int     `json:"percentile_window"`
}

// ScorerConfig holds the multi-criteria scoring weights and hard
// filter limits used when ranking symbols.
type ScorerConfig struct {
	TrendQualityWeight      float64 `json:"trend_quality_weight"`
	VolumeHealthWeight      float64 `json:"volume_health_weight"`
	VolatilityHealthWeight  float64 `json:"volatility_health_weight"`
	MomentumWeight          float64 `json:"momentum_weight"`
	StructureQualityWeight  float64 `json:"structure_quality_weight"`
	LiquidityQualityWeight  float64 `json:"liquidity_quality_weight"`
	MinQuoteVolume          float64 `json:"min_quote_volume"`          // hard filter
	MaxRangeCandles         int     `json:"max_range_candles"`         // hard filter: candles stuck in a range
	RejectExtremeVolatility bool    `json:"reject_extreme_volatility"` // hard filter
}

// ScannerConfig holds multi-symbol scan configuration
type ScannerConfig struct {
	Symbols      []string `json:"symbols"`
	WorkerCount  int      `json:"worker_count"`
	CacheTTLSecs int      `json:"cache_ttl_secs"`
	TimeoutSecs  int      `json:"timeout_secs"`
}

// AuthConfig holds optional API bearer-token authentication
type AuthConfig struct {
	Enabled   bool   `json:"enabled"`
	JWTSecret string `json:"jwt_secret"`
}

// RedisConfig holds the optional report cache backend
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
	TTLSecs  int    `json:"ttl_secs"`
}

// DatabaseConfig holds the optional scan history backend
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// Load reads the config file at path (when it exists), applies
// defaults for anything unset, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.ServerConfig.Port == 0 {
		cfg.ServerConfig.Port = 8080
	}
	if cfg.ServerConfig.RateLimit == 0 {
		cfg.ServerConfig.RateLimit = 120
	}
	if cfg.ServerConfig.RateWindowSecs == 0 {
		cfg.ServerConfig.RateWindowSecs = 60
	}
	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "info"
	}

	a := &cfg.AnalysisConfig
	if len(a.Timeframes) == 0 {
		a.Timeframes = []string{string(market.TF15m), string(market.TF1h), string(market.TF4h), string(market.TF1d)}
	}
	if a.HTFTimeframe == "" {
		a.HTFTimeframe = string(market.TF4h)
	}
	if a.LTFTimeframe == "" {
		a.LTFTimeframe = string(market.TF1h)
	}
	if a.SwingWindow == 0 {
		a.SwingWindow = 2
	}
	if a.OrderBlockLookback == 0 {
		a.OrderBlockLookback = 10
	}
	if a.LiquidityTolerance == 0 {
		a.LiquidityTolerance = 0.002
	}
	if a.RSIPeriod == 0 {
		a.RSIPeriod = 14
	}
	if a.ATRPeriod == 0 {
		a.ATRPeriod = 14
	}
	if a.ADXPeriod == 0 {
		a.ADXPeriod = 14
	}
	if a.EMAFastPeriod == 0 {
		a.EMAFastPeriod = 20
	}
	if a.EMASlowPeriod == 0 {
		a.EMASlowPeriod = 50
	}
	if a.MACDFastPeriod == 0 {
		a.MACDFastPeriod = 12
	}
	if a.MACDSlowPeriod == 0 {
		a.MACDSlowPeriod = 26
	}
	if a.MACDSignalPeriod == 0 {
		a.MACDSignalPeriod = 9
	}
	if a.OrderFlowWindow == 0 {
		a.OrderFlowWindow = 20
	}
	if a.LargeOrderMult == 0 {
		a.LargeOrderMult = 2.0
	}

	r := &cfg.RegimeConfig
	if r.TrendingADX == 0 {
		r.TrendingADX = 25
	}
	if r.RangingADX == 0 {
		r.RangingADX = 20
	}
	if r.TrendingRatio == 0 {
		r.TrendingRatio = 15
	}
	if r.RangingRatio == 0 {
		r.RangingRatio = 10
	}
	if r.VolatilePctl == 0 {
		r.VolatilePctl = 80
	}
	if r.RangeLookback == 0 {
		r.RangeLookback = 20
	}
	if r.PercentileWindow == 0 {
		r.PercentileWindow = 30
	}

	s := &cfg.ScorerConfig
	if s.TrendQualityWeight == 0 {
		s.TrendQualityWeight = 0.25
	}
	if s.VolumeHealthWeight == 0 {
		s.VolumeHealthWeight = 0.15
	}
	if s.VolatilityHealthWeight == 0 {
		s.VolatilityHealthWeight = 0.15
	}
	if s.MomentumWeight == 0 {
		s.MomentumWeight = 0.15
	}
	if s.StructureQualityWeight == 0 {
		s.StructureQualityWeight = 0.15
	}
	if s.LiquidityQualityWeight == 0 {
		s.LiquidityQualityWeight = 0.15
	}
	if s.MinQuoteVolume == 0 {
		s.MinQuoteVolume = 10_000_000
	}
	if s.MaxRangeCandles == 0 {
		s.MaxRangeCandles = 40
	}

	sc := &cfg.ScannerConfig
	if sc.WorkerCount == 0 {
		sc.WorkerCount = 5
	}
	if sc.CacheTTLSecs == 0 {
		sc.CacheTTLSecs = 60
	}
	if sc.TimeoutSecs == 0 {
		sc.TimeoutSecs = 120
	}

	if cfg.RedisConfig.PoolSize == 0 {
		cfg.RedisConfig.PoolSize = 10
	}
	if cfg.RedisConfig.TTLSecs == 0 {
		cfg.RedisConfig.TTLSecs = 300
	}
	if cfg.DatabaseConfig.SSLMode == "" {
		cfg.DatabaseConfig.SSLMode = "disable"
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.ProductionMode = getEnvBoolOrDefault("PRODUCTION_MODE", cfg.ServerConfig.ProductionMode)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.JSONFormat = getEnvBoolOrDefault("LOG_JSON", cfg.LoggingConfig.JSONFormat)

	cfg.AuthConfig.Enabled = getEnvBoolOrDefault("AUTH_ENABLED", cfg.AuthConfig.Enabled)
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)

	cfg.RedisConfig.Enabled = getEnvBoolOrDefault("REDIS_ENABLED", cfg.RedisConfig.Enabled)
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)

	cfg.DatabaseConfig.Enabled = getEnvBoolOrDefault("DATABASE_ENABLED", cfg.DatabaseConfig.Enabled)
	cfg.DatabaseConfig.Host = getEnvOrDefault("DATABASE_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DATABASE_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DATABASE_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DATABASE_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DATABASE_NAME", cfg.DatabaseConfig.Database)
}

func validate(cfg *Config) error {
	if cfg.AuthConfig.Enabled && cfg.AuthConfig.JWTSecret == "" {
		return fmt.Errorf("auth enabled but AUTH_JWT_SECRET is not set")
	}
	if cfg.AnalysisConfig.SwingWindow < 1 {
		return fmt.Errorf("swing_window must be at least 1")
	}
	for _, tf := range []string{cfg.AnalysisConfig.HTFTimeframe, cfg.AnalysisConfig.LTFTimeframe} {
		if !containsString(cfg.AnalysisConfig.Timeframes, tf) {
			return fmt.Errorf("bias timeframe %s is not among configured timeframes", tf)
		}
	}
	return nil
}

// ScanTimeout returns the per-scan deadline
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScannerConfig.TimeoutSecs) * time.Second
}

// CacheTTL returns the scan cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.ScannerConfig.CacheTTLSecs) * time.Second
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
