package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	POS      POSConfig
	Delivery DeliveryConfig
	Sync     SyncConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port            int
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level   string
	Service string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	StatusTTL time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	FallbackTopic string
}

type POSConfig struct {
	BaseURL               string
	APILogin              string
	OrganizationID        string
	TerminalGroupID       string
	MenuID                string
	CashPaymentTypeID     string
	CardPaymentTypeID     string
	DeliveryOrderTypeID   string
	CollectionOrderTypeID string
	WebsiteOrderTypeID    string
	SourceKey             string
	HTTPTimeout           time.Duration
	TokenTTL              time.Duration
	TokenSafetyMargin     time.Duration
	StatusPollAttempts    int
	StatusPollInterval    time.Duration
}

type DeliveryConfig struct {
	CountryCode   string
	Location      *time.Location
	MinLeadTime   time.Duration
	EveningCutoff Clock
	DefaultHour   Clock
}

type OrderConfig struct {
	TxTimeout        time.Duration
	SubmitTimeout    time.Duration
	MaxRetryAttempts int
}

type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Clock is a wall-clock time of day in the delivery location.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("parsing clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// YAML file its keys are used as a base that environment variables override.
func Load() (*Config, error) {
	viper.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "90s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "75s")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "alsaraya")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "alsaraya")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVICE_NAME", "alsaraya-storefront")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_STATUS_TTL", "24h")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_FALLBACK_TOPIC", "orders.manual-entry")
	viper.SetDefault("POS_API_URL", "https://api-eu.iiko.services")
	viper.SetDefault("POS_API_LOGIN", "")
	viper.SetDefault("POS_ORG_ID", "")
	viper.SetDefault("POS_TERMINAL_ID", "")
	viper.SetDefault("POS_MENU_ID", "9321")
	viper.SetDefault("POS_PAYMENT_TYPE_CASH", "")
	viper.SetDefault("POS_PAYMENT_TYPE_CARD", "")
	viper.SetDefault("POS_DELIVERY_ORDER_TYPE", "")
	viper.SetDefault("POS_COLLECTION_ORDER_TYPE", "")
	viper.SetDefault("POS_WEBSITE_ORDER_TYPE", "")
	viper.SetDefault("POS_SOURCE_KEY", "website")
	viper.SetDefault("POS_HTTP_TIMEOUT", "15s")
	viper.SetDefault("POS_TOKEN_TTL", "50m")
	viper.SetDefault("POS_TOKEN_SAFETY_MARGIN", "10m")
	viper.SetDefault("POS_STATUS_POLL_ATTEMPTS", 0)
	viper.SetDefault("POS_STATUS_POLL_INTERVAL", "2s")
	viper.SetDefault("POS_COUNTRY_CODE", "971")
	viper.SetDefault("POS_TIMEZONE", "Asia/Dubai")
	viper.SetDefault("POS_MIN_LEAD_TIME", "4h")
	viper.SetDefault("POS_EVENING_CUTOFF", "19:00")
	viper.SetDefault("POS_DEFAULT_DELIVERY_HOUR", "12:00")
	viper.SetDefault("SYNC_ENABLED", true)
	viper.SetDefault("SYNC_INTERVAL", "15m")
	viper.SetDefault("ORDER_TX_TIMEOUT", "5s")
	viper.SetDefault("ORDER_SUBMIT_TIMEOUT", "60s")
	viper.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)

	var (
		writeTimeout, shutdownTimeout, connMaxLifetime, statusTTL time.Duration
		httpTimeout, tokenTTL, safetyMargin, pollInterval         time.Duration
		minLeadTime, syncInterval, txTimeout, submitTimeout       time.Duration
	)
	durations := map[string]*time.Duration{
		"SERVER_WRITE_TIMEOUT":     &writeTimeout,
		"SERVER_SHUTDOWN_TIMEOUT":  &shutdownTimeout,
		"DB_CONN_MAX_LIFETIME":     &connMaxLifetime,
		"REDIS_STATUS_TTL":         &statusTTL,
		"POS_HTTP_TIMEOUT":         &httpTimeout,
		"POS_TOKEN_TTL":            &tokenTTL,
		"POS_TOKEN_SAFETY_MARGIN":  &safetyMargin,
		"POS_STATUS_POLL_INTERVAL": &pollInterval,
		"POS_MIN_LEAD_TIME":        &minLeadTime,
		"SYNC_INTERVAL":            &syncInterval,
		"ORDER_TX_TIMEOUT":         &txTimeout,
		"ORDER_SUBMIT_TIMEOUT":     &submitTimeout,
	}
	for key, dst := range durations {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = d
	}

	loc, err := time.LoadLocation(viper.GetString("POS_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("loading POS_TIMEZONE: %w", err)
	}

	cutoff, err := ParseClock(viper.GetString("POS_EVENING_CUTOFF"))
	if err != nil {
		return nil, fmt.Errorf("parsing POS_EVENING_CUTOFF: %w", err)
	}

	defaultHour, err := ParseClock(viper.GetString("POS_DEFAULT_DELIVERY_HOUR"))
	if err != nil {
		return nil, fmt.Errorf("parsing POS_DEFAULT_DELIVERY_HOUR: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetInt("SERVER_PORT"),
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level:   viper.GetString("LOG_LEVEL"),
			Service: viper.GetString("SERVICE_NAME"),
		},
		Redis: RedisConfig{
			Addr:      viper.GetString("REDIS_ADDR"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			StatusTTL: statusTTL,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(viper.GetString("KAFKA_BROKERS")),
			FallbackTopic: viper.GetString("KAFKA_FALLBACK_TOPIC"),
		},
		POS: POSConfig{
			BaseURL:               strings.TrimRight(viper.GetString("POS_API_URL"), "/"),
			APILogin:              viper.GetString("POS_API_LOGIN"),
			OrganizationID:        viper.GetString("POS_ORG_ID"),
			TerminalGroupID:       viper.GetString("POS_TERMINAL_ID"),
			MenuID:                viper.GetString("POS_MENU_ID"),
			CashPaymentTypeID:     viper.GetString("POS_PAYMENT_TYPE_CASH"),
			CardPaymentTypeID:     viper.GetString("POS_PAYMENT_TYPE_CARD"),
			DeliveryOrderTypeID:   viper.GetString("POS_DELIVERY_ORDER_TYPE"),
			CollectionOrderTypeID: viper.GetString("POS_COLLECTION_ORDER_TYPE"),
			WebsiteOrderTypeID:    viper.GetString("POS_WEBSITE_ORDER_TYPE"),
			SourceKey:             viper.GetString("POS_SOURCE_KEY"),
			HTTPTimeout:           httpTimeout,
			TokenTTL:              tokenTTL,
			TokenSafetyMargin:     safetyMargin,
			StatusPollAttempts:    viper.GetInt("POS_STATUS_POLL_ATTEMPTS"),
			StatusPollInterval:    pollInterval,
		},
		Delivery: DeliveryConfig{
			CountryCode:   strings.TrimPrefix(viper.GetString("POS_COUNTRY_CODE"), "+"),
			Location:      loc,
			MinLeadTime:   minLeadTime,
			EveningCutoff: cutoff,
			DefaultHour:   defaultHour,
		},
		Sync: SyncConfig{
			Enabled:  viper.GetBool("SYNC_ENABLED"),
			Interval: syncInterval,
		},
		Order: OrderConfig{
			TxTimeout:        txTimeout,
			SubmitTimeout:    submitTimeout,
			MaxRetryAttempts: viper.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
	}

	return cfg, nil
}

// Validate reports configuration that would make every POS call fail.
func (c *Config) Validate() error {
	var missing []string
	if c.POS.BaseURL == "" {
		missing = append(missing, "POS_API_URL")
	}
	if c.POS.APILogin == "" {
		missing = append(missing, "POS_API_LOGIN")
	}
	if c.POS.OrganizationID == "" {
		missing = append(missing, "POS_ORG_ID")
	}
	if c.POS.TerminalGroupID == "" {
		missing = append(missing, "POS_TERMINAL_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.POS.TokenSafetyMargin >= c.POS.TokenTTL {
		return fmt.Errorf("POS_TOKEN_SAFETY_MARGIN (%s) must be shorter than POS_TOKEN_TTL (%s)",
			c.POS.TokenSafetyMargin, c.POS.TokenTTL)
	}
	if c.Order.SubmitTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("ORDER_SUBMIT_TIMEOUT (%s) must be shorter than SERVER_WRITE_TIMEOUT (%s)",
			c.Order.SubmitTimeout, c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= c.Order.SubmitTimeout {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT (%s) must be longer than ORDER_SUBMIT_TIMEOUT (%s)",
			c.Server.ShutdownTimeout, c.Order.SubmitTimeout)
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.Sync.Interval)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
