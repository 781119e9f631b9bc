// Package llm proxies storefront chat requests to an upstream
// chat-completions provider, keeping API keys out of the browser.
package llm

import (
	"fmt"
	"os"
	"strings"
)

// Provider is a resolved upstream: where to send the request and with which
// credentials.
type Provider struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

const (
	defaultOpenAIBase   = "https://api.openai.com"
	defaultDeepSeekBase = "https://api.deepseek.com"

	defaultOpenAIModel   = "gpt-3.5-turbo"
	defaultDeepSeekModel = "deepseek-chat"
)

// deepseekAliases collects the spellings seen in real client requests.
var deepseekAliases = map[string]bool{
	"deepseek":  true,
	"deepsek":   true,
	"deep-seek": true,
	"deepsel":   true,
	"deep-sek":  true,
}

// deepseekKeyEnvVars lists the env names checked for a DeepSeek key,
// tolerating the misspellings that have shipped in .env files before.
var deepseekKeyEnvVars = []string{
	"DEEPSEEK_API_KEY",
	"DEEPSEEK_APIKEY",
	"DEEPSEK_API_KEY",
	"DEEPSEK_APIKEY",
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// Resolve maps a requested provider name to an upstream. Unknown names fall
// back to OpenAI. An error means the matching API key is missing.
func Resolve(name, model string) (Provider, error) {
	if deepseekAliases[strings.ToLower(strings.TrimSpace(name))] {
		key := firstEnv(deepseekKeyEnvVars...)
		if key == "" {
			return Provider{}, fmt.Errorf("deepseek selected but no DEEPSEEK_API_KEY is set")
		}
		if model == "" {
			model = defaultDeepSeekModel
		}
		return Provider{
			Name:    "deepseek",
			BaseURL: firstEnv("DEEPSEEK_API_BASE"),
			APIKey:  key,
			Model:   model,
		}.withDefaultBase(defaultDeepSeekBase), nil
	}

	key := firstEnv("OPENAI_API_KEY")
	if key == "" {
		return Provider{}, fmt.Errorf("no OPENAI_API_KEY is set")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return Provider{
		Name:    "openai",
		BaseURL: firstEnv("OPENAI_API_BASE"),
		APIKey:  key,
		Model:   model,
	}.withDefaultBase(defaultOpenAIBase), nil
}

func (p Provider) withDefaultBase(base string) Provider {
	if p.BaseURL == "" {
		p.BaseURL = base
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	return p
}
