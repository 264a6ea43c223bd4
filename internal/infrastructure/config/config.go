package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Firestore     FirestoreConfig     `mapstructure:"firestore"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Purchase      PurchaseConfig      `mapstructure:"purchase"`
	Notify        NotifyConfig        `mapstructure:"notify"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type FirestoreConfig struct {
	ProjectID       string   `mapstructure:"project_id"`
	DatabaseIDs     []string `mapstructure:"database_ids"`
	CredentialsFile string   `mapstructure:"credentials_file"`
	BasePath        string   `mapstructure:"base_path"`
	PurchasesPath   string   `mapstructure:"purchases_path"`
	PaymentsPath    string   `mapstructure:"payments_path"`
}

type StripeConfig struct {
	APIKey               string `mapstructure:"api_key"`
	OnboardingRefreshURL string `mapstructure:"onboarding_refresh_url"`
	OnboardingReturnURL  string `mapstructure:"onboarding_return_url"`
	AttachSuccessURL     string `mapstructure:"attach_success_url"`
	AttachCancelURL      string `mapstructure:"attach_cancel_url"`
	SubscribeSuccessURL  string `mapstructure:"subscribe_success_url"`
	SubscribeCancelURL   string `mapstructure:"subscribe_cancel_url"`
}

type PurchaseConfig struct {
	NotifyFrom  string `mapstructure:"notify_from"`
	NotifyTitle string `mapstructure:"notify_title"`
	NotifyBody  string `mapstructure:"notify_body"`
}

type NotifyConfig struct {
	Provider       string `mapstructure:"provider"` // "sendgrid", "smtp" or "" for none
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	SMTPHost       string `mapstructure:"smtp_host"`
	SMTPPort       int    `mapstructure:"smtp_port"`
	SMTPUsername   string `mapstructure:"smtp_username"`
	SMTPPassword   string `mapstructure:"smtp_password"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CHECKOUT")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/checkout")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})

	v.SetDefault("firestore.database_ids", []string{"(default)"})
	v.SetDefault("firestore.base_path", "users")
	v.SetDefault("firestore.purchases_path", "purchases")
	v.SetDefault("firestore.payments_path", "payments")

	v.SetDefault("purchase.notify_title", "Complete your payment authentication")
	v.SetDefault("purchase.notify_body", "Please complete the payment authentication at {url}")

	v.SetDefault("notify.provider", "")
	v.SetDefault("notify.smtp_port", 587)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Firestore.ProjectID == "" {
		errs = append(errs, fmt.Errorf("firestore.project_id is required"))
	}
	if len(c.Firestore.DatabaseIDs) == 0 {
		errs = append(errs, fmt.Errorf("firestore.database_ids must name at least one database"))
	}
	if c.Stripe.APIKey == "" {
		errs = append(errs, fmt.Errorf("stripe.api_key is required"))
	}

	switch c.Notify.Provider {
	case "", "sendgrid", "smtp":
	default:
		errs = append(errs, fmt.Errorf("notify.provider must be one of sendgrid, smtp or empty, got %q", c.Notify.Provider))
	}
	if c.Notify.Provider == "sendgrid" && c.Notify.SendGridAPIKey == "" {
		errs = append(errs, fmt.Errorf("notify.sendgrid_api_key required when provider is sendgrid"))
	}
	if c.Notify.Provider == "smtp" && c.Notify.SMTPHost == "" {
		errs = append(errs, fmt.Errorf("notify.smtp_host required when provider is smtp"))
	}
	if c.Notify.Provider != "" && c.Purchase.NotifyFrom == "" {
		errs = append(errs, fmt.Errorf("purchase.notify_from required when a notify provider is configured"))
	}

	return errors.Join(errs...)
}
