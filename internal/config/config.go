package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigFailed обозначает любую проблему с чтением или разбором config.yaml.
var ErrConfigFailed = errors.New("config: failed to load")

// Поддерживаемые хранилища сессии.
const (
	SessionBackendFile   = "file"
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

const (
	defaultPageSize = 12
	defaultTaxRate  = 0.10
)

// Переменные окружения, перекрывающие значения из файла.
const (
	EnvAPIURL         = "STOREFRONT_API_URL"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvSessionBackend = "STOREFRONT_SESSION_BACKEND"
	EnvRedisAddr      = "STOREFRONT_REDIS_ADDR"
)

// Config описывает пользовательские настройки клиента магазина и вычисляемые пути.
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	DataDir        string        `yaml:"data_dir"`
	SessionBackend string        `yaml:"session_backend"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PageSize       int           `yaml:"page_size"`
	TaxRate        float64       `yaml:"tax_rate"`

	AppDir string `yaml:"-"`

	// taxRateSet отличает явный tax_rate: 0 от отсутствующего ключа.
	taxRateSet bool
}

// presence отмечает ключи, для которых нулевое значение допустимо и не означает «не задано».
type presence struct {
	TaxRate *float64 `yaml:"tax_rate"`
}

// Error содержит дополнительный контекст при неудачной загрузке конфигурации.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ErrConfigFailed.Error()
	}
	return fmt.Sprintf("%v: %s: %v", ErrConfigFailed, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is позволяет сравнивать любую ошибку конфигурации с ErrConfigFailed.
func (e *Error) Is(target error) bool {
	return target == ErrConfigFailed
}

// DetectAppDir возвращает каталог, в котором находится исполняемый файл.
func DetectAppDir() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("detect executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exePath)
	if err == nil {
		exePath = resolved
	}
	return filepath.Dir(exePath), nil
}

// DefaultPath возвращает путь к config.yaml относительно каталога приложения.
func DefaultPath(appDir string) string {
	return filepath.Join(appDir, "config.yaml")
}

// Load читает YAML конфигурации, подмешивает .env и переменные окружения,
// применяет appDir ко всем относительным путям и валидирует результат.
func Load(path string, appDir string) (*Config, error) {
	if path == "" {
		return nil, &Error{Path: path, Err: errors.New("config path is empty")}
	}
	if appDir == "" {
		return nil, &Error{Path: path, Err: errors.New("app directory is empty")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	var keys presence
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.taxRateSet = keys.TaxRate != nil
	cfg.AppDir = appDir
	if err := loadDotEnv(filepath.Join(appDir, ".env")); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.applyDefaults()
	cfg.applyAppDir()
	if err := cfg.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := cfg.ensureDirectories(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return &cfg, nil
}

// loadDotEnv подгружает .env рядом с приложением; уже заданные переменные не перезаписываются.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		c.APIBaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvSessionBackend); ok && strings.TrimSpace(v) != "" {
		c.SessionBackend = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && strings.TrimSpace(v) != "" {
		c.RedisAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup("STOREFRONT_REDIS_DB"); ok && strings.TrimSpace(v) != "" {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("STOREFRONT_REDIS_DB: %w", err)
		}
		c.RedisDB = db
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.LogLevel = normalize(c.LogLevel, "info")
	c.SessionBackend = normalize(c.SessionBackend, SessionBackendFile)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.LogFile == "" {
		c.LogFile = filepath.Join("logs", "client.log")
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.PageSize == 0 {
		c.PageSize = defaultPageSize
	}
	if !c.taxRateSet {
		c.TaxRate = defaultTaxRate
	}
}

// OverrideLogLevel заменяет log_level значением из командной строки
// с той же нормализацией и проверкой, что и при загрузке файла.
func (c *Config) OverrideLogLevel(level string) error {
	level = normalize(level, "")
	if _, ok := allowedLevels[level]; !ok {
		return fmt.Errorf("unsupported log level %q", level)
	}
	c.LogLevel = level
	return nil
}

func (c *Config) applyAppDir() {
	if c.AppDir == "" {
		return
	}
	c.AppDir = filepath.Clean(c.AppDir)
	c.LogFile = makeAbsolute(c.LogFile, c.AppDir)
	c.DataDir = makeAbsolute(c.DataDir, c.AppDir)
}

func (c *Config) validate() error {
	switch {
	case c.APIBaseURL == "":
		return errors.New("api_base_url is required")
	case c.AppDir == "":
		return errors.New("app directory is unknown")
	case c.PageSize < 0:
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	case c.TaxRate < 0 || c.TaxRate >= 1:
		return fmt.Errorf("tax_rate must be in [0, 1), got %v", c.TaxRate)
	case c.RequestTimeout < 0:
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_base_url %q is not an absolute URL", c.APIBaseURL)
	}
	if _, ok := allowedLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unsupported log_level %q", c.LogLevel)
	}
	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for session_backend redis")
		}
	default:
		return fmt.Errorf("unsupported session_backend %q", c.SessionBackend)
	}
	return nil
}

func (c *Config) ensureDirectories() error {
	paths := []string{filepath.Dir(c.LogFile)}
	if c.SessionBackend == SessionBackendFile {
		paths = append(paths, c.DataDir)
	}
	for _, dir := range paths {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func makeAbsolute(path string, base string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if base == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func normalize(value, fallback string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return fallback
	}
	return value
}

var allowedLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"error": {},
}
