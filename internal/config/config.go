// Package config reads service configuration from the environment. Each
// binary calls LoadEnv first so a local .env file can override the inherited
// environment during development; production deployments set variables
// directly.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file unless running in production. Overload is used
// so .env values win over stale shell exports, matching how the services
// have always been run locally.
func LoadEnv() {
	if os.Getenv("ENV") == "production" {
		return
	}
	if err := godotenv.Overload(".env"); err != nil {
		log.Printf("no .env file found, using system environment: %v", err)
	}
}

// API is the storefront BFF configuration.
type API struct {
	Addr            string
	CommerceBaseURL string
	NotifierURL     string
	RequestTimeout  time.Duration
}

// APIFromEnv builds the BFF configuration. COMMERCE_API_BASE is required:
// defaulting it has caused every environment mixup this project ever had.
func APIFromEnv() (API, error) {
	base := os.Getenv("COMMERCE_API_BASE")
	if base == "" {
		return API{}, fmt.Errorf("COMMERCE_API_BASE is not set; configure the commerce API URL in .env")
	}
	return API{
		Addr:            listenAddr("PORT", "8080"),
		CommerceBaseURL: base,
		NotifierURL:     os.Getenv("NOTIFICATION_SERVICE_URL"),
		RequestTimeout:  durationEnv("COMMERCE_TIMEOUT", 10*time.Second),
	}, nil
}

// Notifier is the email notification service configuration.
type Notifier struct {
	Addr           string
	EmailService   string
	EmailHost      string
	EmailPort      int
	EmailSecure    bool
	EmailUser      string
	EmailPass      string
	RecipientEmail string
}

// NotifierFromEnv builds the notifier configuration. EMAIL_SERVICE selects a
// preset (gmail, outlook, yahoo) or "smtp" for an explicit host/port.
func NotifierFromEnv() Notifier {
	return Notifier{
		Addr:           listenAddr("NOTIFICATION_PORT", "4001"),
		EmailService:   envDefault("EMAIL_SERVICE", "gmail"),
		EmailHost:      os.Getenv("EMAIL_HOST"),
		EmailPort:      intEnv("EMAIL_PORT", 587),
		EmailSecure:    os.Getenv("EMAIL_SECURE") == "true",
		EmailUser:      os.Getenv("EMAIL_USER"),
		EmailPass:      os.Getenv("EMAIL_PASS"),
		RecipientEmail: envDefault("NOTIFICATION_EMAIL", os.Getenv("EMAIL_USER")),
	}
}

// Proxy is the LLM chat-completion proxy configuration. Provider API keys
// are resolved per request in internal/llm, not here, because the set of
// accepted env spellings is provider specific.
type Proxy struct {
	Addr string
}

func ProxyFromEnv() Proxy {
	return Proxy{Addr: listenAddr("PORT", "4000")}
}

func listenAddr(key, fallback string) string {
	port := os.Getenv(key)
	if port == "" {
		port = fallback
	}
	// PORT as injected by some hosts arrives without the colon, some shells
	// add it; accept both.
	if port[0] == ':' {
		port = port[1:]
	}
	return "0.0.0.0:" + port
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
