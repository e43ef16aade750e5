// Package config loads service configuration from the environment, with
// service addresses also loadable from a yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by all service binaries. Each binary
// reads only the fields it needs.
type Config struct {
	Port      string
	MySQLDSN  string
	RedisAddr string
	JWTSecret string

	AuthServiceURL    string
	UserServiceURL    string
	ProductServiceURL string
	OCRServiceURL     string

	FormRecognizerEndpoint string
	FormRecognizerAPIKey   string
}

// Load reads .env if present, then the process environment.
func Load(defaultPort string) Config {
	godotenv.Load()

	return Config{
		Port:      envOr("PORT", defaultPort),
		MySQLDSN:  envOr("MYSQL_DSN", "root:password@tcp(localhost:3306)/homestock?parseTime=true"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		JWTSecret: envOr("JWT_SECRET", "dev-secret"),

		AuthServiceURL:    envOr("AUTH_SERVICE_URL", "http://localhost:4001"),
		UserServiceURL:    envOr("USER_SERVICE_URL", "http://localhost:4002"),
		ProductServiceURL: envOr("PRODUCT_SERVICE_URL", "http://localhost:4003"),
		OCRServiceURL:     envOr("OCR_SERVICE_URL", "http://localhost:4004"),

		FormRecognizerEndpoint: os.Getenv("FORM_RECOGNIZER_ENDPOINT"),
		FormRecognizerAPIKey:   os.Getenv("FORM_RECOGNIZER_API_KEY"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ServicesConfig maps service names to their addresses for the gateway.
type ServicesConfig struct {
	Services map[string]ServiceSettings `yaml:"services"`
}

type ServiceSettings struct {
	URL string `yaml:"url"`
}

// LoadServicesConfig loads service addresses from config/services.yaml.
func LoadServicesConfig() (*ServicesConfig, error) {
	return LoadServicesConfigFromPath(filepath.Join("config", "services.yaml"))
}

// LoadServicesConfigFromPath loads service addresses from a specific path.
func LoadServicesConfigFromPath(path string) (*ServicesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services config: %w", err)
	}

	var cfg ServicesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse services config: %w", err)
	}

	for name, settings := range cfg.Services {
		if settings.URL == "" {
			return nil, fmt.Errorf("service %s: url is required", name)
		}
	}
	return &cfg, nil
}

// ServiceURLs resolves backend addresses: yaml file first, env second.
func (c Config) ServiceURLs() map[string]string {
	urls := map[string]string{
		"auth":    c.AuthServiceURL,
		"user":    c.UserServiceURL,
		"product": c.ProductServiceURL,
		"ocr":     c.OCRServiceURL,
	}

	if fileCfg, err := LoadServicesConfig(); err == nil {
		for name, settings := range fileCfg.Services {
			urls[name] = settings.URL
		}
	}
	return urls
}
