package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBookAPIURL = "https://dapi.kakao.com/v3/search/book"
	DefaultAuthScheme = "KakaoAK"
	DefaultDebounce   = 300 * time.Millisecond

	// APIKeyName — ключ, который ищем в файле с секретами.
	APIKeyName = "API_KEY"
)

// Config — структура, хранящая все настройки приложения.
// Передаём её целиком, а не по одному параметру.
type Config struct {
	// Источник поиска
	BookAPIURL  string
	AuthScheme  string
	APIKey      string
	SecretsPath string

	// Поверхности: бот, база, HTTP API, прокси (всё опционально)
	TelegramToken string
	SQLitePath    string
	HTTPAddr      string
	ProxyAddr     string

	HTTPTimeout time.Duration
	Debounce    time.Duration
	LogLevel    string
}

// Load считывает .env, переменные окружения и файл с секретами.
// Фатальны только кривые длительности: плохой адрес или пустой ключ
// просто дадут пустые результаты поиска.
func Load() (*Config, error) {
	// 1. Загружаем .env в переменные окружения.
	// Если файла нет — ничего страшного (Docker передаёт env напрямую).
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file, using the OS environment")
	}

	// 2. Длительности (единственное, что может сломать запуск)
	timeout, err := durationEnv("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	debounce, err := durationEnv("SEARCH_DEBOUNCE", DefaultDebounce)
	if err != nil {
		return nil, err
	}

	// 3. Читаем остальные переменные, пустые заменяем значениями по умолчанию
	cfg := &Config{
		BookAPIURL:    withDefault(os.Getenv("BOOK_API_URL"), DefaultBookAPIURL),
		AuthScheme:    withDefault(os.Getenv("BOOK_API_AUTH_SCHEME"), DefaultAuthScheme),
		SecretsPath:   resolvePath(withDefault(os.Getenv("SECRETS_FILE"), "secrets.env")),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		HTTPAddr:      withDefault(os.Getenv("HTTP_ADDR"), ":8080"),
		ProxyAddr:     strings.TrimSpace(os.Getenv("PROXY_ADDR")),
		HTTPTimeout:   timeout,
		Debounce:      debounce,
		LogLevel:      withDefault(os.Getenv("LOG_LEVEL"), "info"),
	}
	if cfg.SQLitePath != "" {
		cfg.SQLitePath = resolvePath(cfg.SQLitePath)
	}

	// 4. Ключ API лежит отдельно, в файле с секретами
	cfg.APIKey = ReadAPIKey(cfg.SecretsPath)

	// 5. Возвращаем готовый конфиг
	return cfg, nil
}

// ReadAPIKey достаёт API_KEY из файла с секретами.
// Нет файла или ключа — пишем предупреждение и возвращаем пустую строку.
func ReadAPIKey(path string) string {
	secrets, err := godotenv.Read(path)
	if err != nil {
		entry := logrus.WithField("path", path)
		if errors.Is(err, fs.ErrNotExist) {
			entry.Warn("secrets file not found, searching without credential")
		} else {
			entry.WithError(err).Warn("secrets file unreadable, searching without credential")
		}
		return ""
	}

	key := strings.TrimSpace(secrets[APIKeyName])
	if key == "" {
		logrus.WithField("path", path).Warnf("%s missing in secrets file, searching without credential", APIKeyName)
	}
	return key
}

// durationEnv — длительность из переменной окружения ("300ms", "10s").
func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("variable %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("variable %s must not be negative", name)
	}
	return d, nil
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// resolvePath делает относительный путь абсолютным от текущей директории.
func resolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Clean(filepath.Join(cwd, p))
	}

	return p
}
