package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration оборачивает time.Duration для yaml-значений вида "24h"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config - конфигурация приложения. Структура явно передается
// в конструкторы (TokenManager, email.Provider, storage и т.д.),
// глобального мутабельного состояния нет.
type Config struct {
	Server struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Env         string `yaml:"env"`
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	JWT struct {
		AccessSecret  string   `yaml:"access_secret"`
		RefreshSecret string   `yaml:"refresh_secret"`
		VerifySecret  string   `yaml:"verify_secret"`
		AccessTTL     Duration `yaml:"access_ttl"`
		RefreshTTL    Duration `yaml:"refresh_ttl"`
		VerifyTTL     Duration `yaml:"verify_ttl"`
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string   `yaml:"smtp_host"`
		SMTPPort     int      `yaml:"smtp_port"`
		SMTPUser     string   `yaml:"smtp_user"`
		SMTPPassword string   `yaml:"smtp_password"`
		FromEmail    string   `yaml:"from_email"`
		FromName     string   `yaml:"from_name"`
		Timeout      Duration `yaml:"timeout"`
		TemplatesDir string   `yaml:"templates_dir"`
	} `yaml:"email"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3
		BasePath  string `yaml:"base_path"`  // для local
		BaseURL   string `yaml:"base_url"`   // публичный URL-префикс
		Bucket    string `yaml:"bucket"`     // для s3
		Region    string `yaml:"region"`     // для s3
		AccessKey string `yaml:"access_key"` // для s3
		SecretKey string `yaml:"secret_key"` // для s3
		Endpoint  string `yaml:"endpoint"`   // для s3-совместимых (MinIO, R2)
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`      // максимальный размер файла в байтах
		AllowedTypes []string `yaml:"allowed_types"` // разрешенные MIME-типы
		AvatarSize   int      `yaml:"avatar_size"`   // сторона квадрата аватара в пикселях
		ImageQuality int      `yaml:"image_quality"` // JPEG quality (1-100)
	} `yaml:"upload"`
}

// Load читает config.yaml (путь из CONFIG_PATH) и накладывает
// переменные окружения поверх секретов и DSN.
func Load() (*Config, error) {
	cfg := defaults()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if f, err := os.Open(configPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Server.Env = "development"

	cfg.JWT.AccessTTL = Duration(24 * time.Hour)
	cfg.JWT.RefreshTTL = Duration(7 * 24 * time.Hour)
	cfg.JWT.VerifyTTL = Duration(time.Hour)

	cfg.Email.SMTPPort = 587
	cfg.Email.Timeout = Duration(30 * time.Second)
	cfg.Email.FromName = "Binkeyit"

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"

	cfg.Upload.MaxSize = 5 * 1024 * 1024
	cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	cfg.Upload.AvatarSize = 400
	cfg.Upload.ImageQuality = 85
	return cfg
}

// applyEnv накладывает переменные окружения поверх файла.
// Секреты в yaml не хранятся в проде.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.FrontendURL = v
	}
	if v := os.Getenv("SECRET_KEY_ACCESS_TOKEN"); v != "" {
		cfg.JWT.AccessSecret = v
	}
	if v := os.Getenv("SECRET_KEY_REFRESH_TOKEN"); v != "" {
		cfg.JWT.RefreshSecret = v
	}
	if v := os.Getenv("EMAIL_VERIFY_SECRET"); v != "" {
		cfg.JWT.VerifySecret = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = p
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("FROM_EMAIL"); v != "" {
		cfg.Email.FromEmail = v
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is not configured (DATABASE_URL)")
	}
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" || c.JWT.VerifySecret == "" {
		return fmt.Errorf("JWT secrets are not configured")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		// Независимые секреты - ротация refresh не должна
		// зависеть от компрометации access-секрета
		return fmt.Errorf("access and refresh secrets must differ")
	}
	return nil
}
