package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Auth struct {
		JWTSecret string `mapstructure:"JWT_SECRET"`
		Issuer    string `mapstructure:"ISSUER"`
	} `mapstructure:"AUTH"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Providers struct {
		Timeout time.Duration `mapstructure:"TIMEOUT"`
		Stripe  struct {
			BaseURL string `mapstructure:"BASE_URL"`
		} `mapstructure:"STRIPE"`
		Resend struct {
			BaseURL string `mapstructure:"BASE_URL"`
			APIKey  string `mapstructure:"API_KEY"`
			From    string `mapstructure:"FROM"`
		} `mapstructure:"RESEND"`
		RespondIO struct {
			BaseURL   string `mapstructure:"BASE_URL"`
			APIKey    string `mapstructure:"API_KEY"`
			ChannelID string `mapstructure:"CHANNEL_ID"`
		} `mapstructure:"RESPONDIO"`
		Runway struct {
			BaseURL      string        `mapstructure:"BASE_URL"`
			APIKey       string        `mapstructure:"API_KEY"`
			Model        string        `mapstructure:"MODEL"`
			PollInterval time.Duration `mapstructure:"POLL_INTERVAL"`
			PollAttempts int           `mapstructure:"POLL_ATTEMPTS"`
		} `mapstructure:"RUNWAY"`
	} `mapstructure:"PROVIDERS"`
	SecretAES string `mapstructure:"SECRET_AES"`
	Flagsmith struct {
		Addr   string `mapstructure:"ADDR"`
		ApiKey string `mapstructure:"API_KEY"`
	} `mapstructure:"FLAGSMITH"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
	} `mapstructure:"MINIO"`
	SnowflakeNode int64 `mapstructure:"SNOWFLAKE_NODE"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func LoadConfig(p Params) *Config {

	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		os.Exit(1)
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		os.Exit(1)
	}

	applyDefaults(&cfg)

	if p.Vault != nil {
		// START - Vault
		client := p.Vault
		ctx := context.Background()

		zap.L().Info("Starting Get Secrets", zap.String("path", cfg.AppEnv))
		secret, err := client.Secrets.KvV2Read(ctx, cfg.AppEnv, vault.WithMountPath("secret"))
		if err != nil {
			zap.L().Error("failed get secret from vault", zap.Error(err))
			os.Exit(1)
		}
		zap.L().Info("Success Get Secret")

		get := func(key string) string {
			if val, ok := secret.Data.Data[key].(string); ok {
				return val
			}
			return ""
		}

		cfg.Database.User = get("postgres_user")
		cfg.Database.Password = get("postgres_password")
		cfg.Redis.Password = get("redis_password")
		cfg.SecretAES = get("secret_aes")
		cfg.Auth.JWTSecret = get("auth_jwt_secret")
		cfg.Providers.Resend.APIKey = get("resend_api_key")
		cfg.Providers.RespondIO.APIKey = get("respondio_api_key")
		cfg.Providers.Runway.APIKey = get("runway_api_key")
		cfg.Flagsmith.ApiKey = get("flagsmith_api_key")
		// END - Vault
	}

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Providers.Timeout == 0 {
		cfg.Providers.Timeout = 30 * time.Second
	}
	if cfg.Providers.Stripe.BaseURL == "" {
		cfg.Providers.Stripe.BaseURL = "https://api.stripe.com"
	}
	if cfg.Providers.Resend.BaseURL == "" {
		cfg.Providers.Resend.BaseURL = "https://api.resend.com"
	}
	if cfg.Providers.RespondIO.BaseURL == "" {
		cfg.Providers.RespondIO.BaseURL = "https://api.respond.io"
	}
	if cfg.Providers.Runway.BaseURL == "" {
		cfg.Providers.Runway.BaseURL = "https://api.dev.runwayml.com"
	}
	if cfg.Providers.Runway.Model == "" {
		cfg.Providers.Runway.Model = "gen3a_turbo"
	}
	if cfg.Providers.Runway.PollInterval == 0 {
		cfg.Providers.Runway.PollInterval = 10 * time.Second
	}
	if cfg.Providers.Runway.PollAttempts == 0 {
		cfg.Providers.Runway.PollAttempts = 60
	}
	if cfg.SnowflakeNode == 0 {
		cfg.SnowflakeNode = 1
	}
}
