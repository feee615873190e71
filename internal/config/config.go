package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Stripe      StripeConfig      `mapstructure:"stripe"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Report      ReportConfig      `mapstructure:"report"`
	Mail        MailConfig        `mapstructure:"mail"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Personas    PersonasConfig    `mapstructure:"personas"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustedProxies lists CIDRs whose X-Forwarded-For is honoured. Empty means
	// the client IP is the TCP peer.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type StripeConfig struct {
	SecretKey       string        `mapstructure:"secret_key"`
	WebhookSecret   string        `mapstructure:"webhook_secret"`
	SignatureHeader string        `mapstructure:"signature_header"`
	Tolerance       time.Duration `mapstructure:"tolerance"`
	BackendURL      string        `mapstructure:"backend_url"`
	PriceID         string        `mapstructure:"price_id"`
	UnitAmount      int64         `mapstructure:"unit_amount"`
	Currency        string        `mapstructure:"currency"`
	ProductName     string        `mapstructure:"product_name"`
	SuccessURL      string        `mapstructure:"success_url"`
	CancelURL       string        `mapstructure:"cancel_url"`
}

type BreakerConfig struct {
	FailThreshold int           `mapstructure:"fail_threshold"`
	OpenFor       time.Duration `mapstructure:"open_for"`
}

type OpenAIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	Temperature  float32       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	FallbackText string        `mapstructure:"fallback_text"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type ReportConfig struct {
	Dir      string  `mapstructure:"dir"`
	Title    string  `mapstructure:"title"`
	PageSize string  `mapstructure:"page_size"`
	Font     string  `mapstructure:"font"`
	FontSize float64 `mapstructure:"font_size"`
}

type MailConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Subject  string        `mapstructure:"subject"`
	Body     string        `mapstructure:"body"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type IdempotencyConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type RateLimitConfig struct {
	RPS       int    `mapstructure:"rps"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type PersonaConfig struct {
	ID       string `mapstructure:"id"`
	Label    string `mapstructure:"label"`
	Template string `mapstructure:"template"`
}

type PersonasConfig struct {
	Default string          `mapstructure:"default"`
	Catalog []PersonaConfig `mapstructure:"catalog"`
}

// legacyEnv maps config keys to the unprefixed variable names older deployments set.
var legacyEnv = map[string]string{
	"stripe.secret_key":     "STRIPE_SECRET_KEY",
	"stripe.webhook_secret": "STRIPE_WEBHOOK_SECRET",
	"openai.api_key":        "OPENAI_API_KEY",
	"mail.password":         "GMAIL_APP_PASSWORD",
	"mail.from":             "SENDER_EMAIL",
	"mail.username":         "SENDER_EMAIL",
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides
// (UXR_*, plus the legacy names in legacyEnv).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (UXR_*)
	v.SetEnvPrefix("UXR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envKey := "UXR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
