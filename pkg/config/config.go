package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// JWT
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// League identity
	LeagueID  int    `mapstructure:"LEAGUE_ID"`
	TeamID    int    `mapstructure:"TEAM_ID"`
	Season    int    `mapstructure:"SEASON"`
	ScoringID int    `mapstructure:"SCORING_ID"`
	ESPNS2    string `mapstructure:"ESPN_S2"`
	SWID      string `mapstructure:"SWID"`

	// Lineup scoring
	LineupFormat       string  `mapstructure:"LINEUP_FORMAT"`
	PenaltyWeight      float64 `mapstructure:"PENALTY_WEIGHT"`
	DefaultUncertainty float64 `mapstructure:"DEFAULT_UNCERTAINTY"`
	MinUncertainty     float64 `mapstructure:"MIN_UNCERTAINTY"`
	PriorSeasonGames   int     `mapstructure:"PRIOR_SEASON_GAMES"`

	// External API behavior
	ESPNRateLimit           int           `mapstructure:"ESPN_RATE_LIMIT"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Cache TTLs
	PoolCacheTTL   time.Duration `mapstructure:"POOL_CACHE_TTL"`
	LeagueCacheTTL time.Duration `mapstructure:"LEAGUE_CACHE_TTL"`

	// Background refresh
	RefreshEnabled  bool   `mapstructure:"REFRESH_ENABLED"`
	RefreshSchedule string `mapstructure:"REFRESH_SCHEDULE"`

	// SMS Configuration
	SMSProvider      string `mapstructure:"SMS_PROVIDER"` // "twilio", "mock"
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`
	AlertPhoneNumber string `mapstructure:"ALERT_PHONE_NUMBER"`
	AlertDailyLimit  int    `mapstructure:"ALERT_DAILY_LIMIT"`
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom reads configuration from an explicit file instead of the
// default .env search path. An empty path keeps the default behavior.
func LoadConfigFrom(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
	}

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "lineup-edge.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("JWT_SECRET", "your-secret-key")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("LEAGUE_ID", 0)
	viper.SetDefault("TEAM_ID", 0)
	viper.SetDefault("SEASON", 2025)
	viper.SetDefault("SCORING_ID", 3) // ESPN league-defaults PPR scoring
	viper.SetDefault("ESPN_S2", "")
	viper.SetDefault("SWID", "")

	viper.SetDefault("LINEUP_FORMAT", "standard")
	viper.SetDefault("PENALTY_WEIGHT", 0.15)
	viper.SetDefault("DEFAULT_UNCERTAINTY", 3.0)
	viper.SetDefault("MIN_UNCERTAINTY", 1.0)
	viper.SetDefault("PRIOR_SEASON_GAMES", 17)

	viper.SetDefault("ESPN_RATE_LIMIT", 2)      // requests per second
	viper.SetDefault("EXTERNAL_API_TIMEOUT", "10s")
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5) // Fail after 5 consecutive failures

	viper.SetDefault("POOL_CACHE_TTL", "15m")
	viper.SetDefault("LEAGUE_CACHE_TTL", "5m")

	viper.SetDefault("REFRESH_ENABLED", false)
	viper.SetDefault("REFRESH_SCHEDULE", "*/30 * * * *")

	// SMS defaults
	viper.SetDefault("SMS_PROVIDER", "mock") // Default to mock for development
	viper.SetDefault("TWILIO_ACCOUNT_SID", "")
	viper.SetDefault("TWILIO_AUTH_TOKEN", "")
	viper.SetDefault("TWILIO_FROM_NUMBER", "")
	viper.SetDefault("ALERT_PHONE_NUMBER", "")
	viper.SetDefault("ALERT_DAILY_LIMIT", 10)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

// RequireLeague validates the settings that league-scoped operations need.
// Pool-only commands can run without them.
func (c *Config) RequireLeague() error {
	if c.LeagueID == 0 {
		return fmt.Errorf("LEAGUE_ID is not set")
	}
	if c.TeamID == 0 {
		return fmt.Errorf("TEAM_ID is not set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
