package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mitienda/storefront/internal/metrics"
)

const defaultMaxTokens = 600

// chatRequest is what the storefront widget sends. message and prompt are
// interchangeable; older widget builds used prompt.
type chatRequest struct {
	Message        string `json:"message"`
	Prompt         string `json:"prompt"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	MaxTokens      int    `json:"max_tokens"`
	MaxTokensCamel int    `json:"maxTokens"`
}

func (r chatRequest) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Prompt
}

func (r chatRequest) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	if r.MaxTokensCamel > 0 {
		return r.MaxTokensCamel
	}
	return defaultMaxTokens
}

type upstreamRequest struct {
	Model     string            `json:"model"`
	Messages  []upstreamMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
}

type upstreamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type upstreamResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HandlerConfig carries the proxy's dependencies.
type HandlerConfig struct {
	HTTP    *http.Client
	Metrics *metrics.Registry
}

// RegisterProxyRoutes wires the chat proxy endpoints. The route is /openai
// for historical reasons; it serves every provider.
func RegisterProxyRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 60 * time.Second}
	}
	r.GET("/health", cfg.health)
	r.POST("/openai", cfg.chat)
}

func (cfg HandlerConfig) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "provider": "openai-proxy"})
}

func (cfg HandlerConfig) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cuerpo de la solicitud inválido"})
		return
	}
	if req.text() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "se requiere un mensaje"})
		return
	}

	provider, err := Resolve(req.Provider, req.Model)
	if err != nil {
		cfg.count(req.Provider, "no_key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reply, raw, err := cfg.complete(c.Request.Context(), provider, req.text(), req.maxTokens())
	if err != nil {
		log.Printf("[llm] %s completion failed: %v", provider.Name, err)
		cfg.count(provider.Name, "error")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	cfg.count(provider.Name, "ok")
	c.JSON(http.StatusOK, gin.H{"reply": reply, "raw": raw})
}

func (cfg HandlerConfig) complete(ctx context.Context, p Provider, text string, maxTokens int) (string, json.RawMessage, error) {
	payload, err := json.Marshal(upstreamRequest{
		Model:     p.Model,
		Messages:  []upstreamMessage{{Role: "user", Content: text}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	res, err := cfg.HTTP.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("call %s: %w", p.Name, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read %s response: %w", p.Name, err)
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, fmt.Errorf("decode %s response (status %d): %w", p.Name, res.StatusCode, err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", nil, fmt.Errorf("%s: %s", p.Name, parsed.Error.Message)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", nil, fmt.Errorf("%s: status %d", p.Name, res.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", nil, fmt.Errorf("%s: response carried no choices", p.Name)
	}

	reply := parsed.Choices[0].Message.Content
	if reply == "" {
		reply = parsed.Choices[0].Text
	}
	return reply, json.RawMessage(body), nil
}

func (cfg HandlerConfig) count(provider, outcome string) {
	if cfg.Metrics != nil {
		if provider == "" {
			provider = "openai"
		}
		cfg.Metrics.LLMRequests.WithLabelValues(provider, outcome).Inc()
	}
}
