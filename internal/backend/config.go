// Package backend реализует учебный сервер магазина в памяти с тем же REST-контрактом,
// что ожидает клиент, для локального запуска и сквозных тестов.
package backend

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr     = "127.0.0.1:8080"
	DefaultTokenTTL       = 24 * time.Hour
	DefaultLoginRateLimit = 20
)

// Config: настройки сервера и начальные данные.
type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	// LoginRateLimit: число попыток входа с одного адреса в минуту.
	LoginRateLimit int           `yaml:"login_rate_limit"`
	CatalogDir     string        `yaml:"catalog_dir"`
	Users          []SeedUser    `yaml:"users"`
	Products       []SeedProduct `yaml:"products"`
}

// SeedUser: пользователь из файла конфигурации. Пароль хранится открытым
// только в файле, при загрузке он хэшируется.
type SeedUser struct {
	Username  string `yaml:"username" validate:"required,min=3,max=50"`
	Email     string `yaml:"email" validate:"required,email"`
	Password  string `yaml:"password" validate:"required,min=6"`
	Role      string `yaml:"role" validate:"omitempty,oneof=ADMIN CUSTOMER"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// SeedProduct: товар из конфигурации или каталога.
type SeedProduct struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description" json:"description"`
	Price       string `yaml:"price" json:"price" validate:"required,numeric"`
	Category    string `yaml:"category" json:"category"`
	Stock       int    `yaml:"stock" json:"stock" validate:"gte=0"`
	ImageURL    string `yaml:"image_url" json:"imageUrl"`
}

// LoadConfig читает YAML-конфигурацию сервера и подставляет значения по умолчанию.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.LoginRateLimit <= 0 {
		c.LoginRateLimit = DefaultLoginRateLimit
	}
}
