package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Billing   BillingConfig
	Scheduler SchedulerConfig
	MoMo      MoMoConfig
	VNPay     VNPayConfig
	ZaloPay   ZaloPayConfig
	Mail      MailConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// BillingConfig holds billing and deposit settings
type BillingConfig struct {
	// CashAmountEpsilon is the rounding tolerance, in VND, accepted when a
	// claimed or callback amount is compared against the outstanding balance
	CashAmountEpsilon int64
	// DepositGraceDays is how many days a check-in may wait for its deposit
	DepositGraceDays int
	// GraceWarningLead is how long before the deadline the warning goes out
	GraceWarningLead time.Duration
	// ElectricityVATPercent is applied to the electricity tier subtotal
	ElectricityVATPercent int
	// WaterRatePerOccupant is the flat monthly water charge per occupant
	WaterRatePerOccupant int64
	// ParkingBaseRate is the monthly charge per motorbike or bicycle
	ParkingBaseRate int64
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled            bool
	SweepCheckInterval time.Duration
}

// MoMoConfig holds MoMo gateway credentials
type MoMoConfig struct {
	Enabled     bool
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	ReturnURL   string
	NotifyURL   string
}

// VNPayConfig holds VNPay gateway credentials
type VNPayConfig struct {
	Enabled    bool
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// ZaloPayConfig holds ZaloPay gateway credentials
type ZaloPayConfig struct {
	Enabled  bool
	AppID    string
	Key1     string
	Key2     string
	Endpoint string
}

// MailConfig holds outbound mail settings
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with NHATRO_ prefix (e.g., NHATRO_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no config file is fine, defaults and env vars take over
	}

	v.SetEnvPrefix("NHATRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Billing: BillingConfig{
			CashAmountEpsilon:     v.GetInt64("billing.cash_amount_epsilon"),
			DepositGraceDays:      v.GetInt("billing.deposit_grace_days"),
			GraceWarningLead:      v.GetDuration("billing.grace_warning_lead"),
			ElectricityVATPercent: v.GetInt("billing.electricity_vat_percent"),
			WaterRatePerOccupant:  v.GetInt64("billing.water_rate_per_occupant"),
			ParkingBaseRate:       v.GetInt64("billing.parking_base_rate"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			SweepCheckInterval: v.GetDuration("scheduler.sweep_check_interval"),
		},
		MoMo: MoMoConfig{
			Enabled:     v.GetBool("momo.enabled"),
			PartnerCode: v.GetString("momo.partner_code"),
			AccessKey:   v.GetString("momo.access_key"),
			SecretKey:   v.GetString("momo.secret_key"),
			Endpoint:    v.GetString("momo.endpoint"),
			ReturnURL:   v.GetString("momo.return_url"),
			NotifyURL:   v.GetString("momo.notify_url"),
		},
		VNPay: VNPayConfig{
			Enabled:    v.GetBool("vnpay.enabled"),
			TmnCode:    v.GetString("vnpay.tmn_code"),
			HashSecret: v.GetString("vnpay.hash_secret"),
			PayURL:     v.GetString("vnpay.pay_url"),
			ReturnURL:  v.GetString("vnpay.return_url"),
		},
		ZaloPay: ZaloPayConfig{
			Enabled:  v.GetBool("zalopay.enabled"),
			AppID:    v.GetString("zalopay.app_id"),
			Key1:     v.GetString("zalopay.key1"),
			Key2:     v.GetString("zalopay.key2"),
			Endpoint: v.GetString("zalopay.endpoint"),
		},
		Mail: MailConfig{
			Enabled:  v.GetBool("mail.enabled"),
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "nhatro-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "nhatro"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// CORS origins intentionally have no "*" fallback: an empty list means
	// no cross-origin requests until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Billing.CashAmountEpsilon == 0 {
		cfg.Billing.CashAmountEpsilon = 1
	}
	if cfg.Billing.DepositGraceDays == 0 {
		cfg.Billing.DepositGraceDays = 3
	}
	if cfg.Billing.GraceWarningLead == 0 {
		cfg.Billing.GraceWarningLead = 24 * time.Hour
	}
	if cfg.Billing.ElectricityVATPercent == 0 {
		cfg.Billing.ElectricityVATPercent = 10
	}
	if cfg.Billing.WaterRatePerOccupant == 0 {
		cfg.Billing.WaterRatePerOccupant = 100000
	}
	if cfg.Billing.ParkingBaseRate == 0 {
		cfg.Billing.ParkingBaseRate = 100000
	}
	if cfg.Scheduler.SweepCheckInterval == 0 {
		cfg.Scheduler.SweepCheckInterval = time.Hour
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Billing.CashAmountEpsilon < 0 {
		return fmt.Errorf("billing.cash_amount_epsilon cannot be negative")
	}
	if c.Billing.DepositGraceDays <= 0 {
		return fmt.Errorf("billing.deposit_grace_days must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.MoMo.Enabled && c.MoMo.SecretKey == "" {
			return fmt.Errorf("momo.secret_key is required when momo is enabled in production")
		}
		if c.VNPay.Enabled && c.VNPay.HashSecret == "" {
			return fmt.Errorf("vnpay.hash_secret is required when vnpay is enabled in production")
		}
		if c.ZaloPay.Enabled && c.ZaloPay.Key2 == "" {
			return fmt.Errorf("zalopay.key2 is required when zalopay is enabled in production")
		}
	}

	return nil
}

// DepositGrace returns the deposit grace window as a duration
func (c *BillingConfig) DepositGrace() time.Duration {
	return time.Duration(c.DepositGraceDays) * 24 * time.Hour
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
