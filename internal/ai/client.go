package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable is returned by any call made while the client is not Ready.
var ErrUnavailable = errors.New("ai provider unavailable")

// ConfigState is the explicit configuration state of the provider.
type ConfigState int

const (
	StateDisabled ConfigState = iota
	StateMissing
	StateReady
)

func (s ConfigState) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateMissing:
		return "missing"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Status is the resolved configuration state plus any missing fields.
type Status struct {
	State   ConfigState
	Missing []string
}

func (s Status) Ready() bool { return s.State == StateReady }

type Config struct {
	Enabled    bool
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration
}

// Client talks to an OpenAI-compatible embeddings/chat API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Named("ai"),
	}
}

// Status resolves the configuration state once; callers branch on it instead
// of probing booleans per call site.
func (c *Client) Status() Status {
	if !c.cfg.Enabled {
		return Status{State: StateDisabled}
	}
	var missing []string
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return Status{State: StateMissing, Missing: missing}
	}
	return Status{State: StateReady}
}

// ChatMessage is one turn of a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// CreateEmbeddings embeds the inputs in one request. Returns the model name
// alongside the vectors so stored chunks can record which model produced them.
func (c *Client) CreateEmbeddings(ctx context.Context, inputs []string) (string, [][]float64, error) {
	if st := c.Status(); !st.Ready() {
		return "", nil, fmt.Errorf("%w: %s %v", ErrUnavailable, st.State, st.Missing)
	}

	var out embeddingsResponse
	err := c.post(ctx, "/embeddings", embeddingsRequest{Model: c.cfg.EmbedModel, Input: inputs}, &out)
	if err != nil {
		return "", nil, err
	}

	vectors := make([][]float64, 0, len(out.Data))
	for _, d := range out.Data {
		vectors = append(vectors, d.Embedding)
	}
	return c.cfg.EmbedModel, vectors, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CreateChatCompletion issues a single chat-completion call and returns the
// raw assistant content. There is no retry on timeout; the caller sees the
// error and the enclosing request fails for that attempt.
func (c *Client) CreateChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, string, error) {
	if st := c.Status(); !st.Ready() {
		return "", "", fmt.Errorf("%w: %s %v", ErrUnavailable, st.State, st.Missing)
	}

	var out chatResponse
	err := c.post(ctx, "/chat/completions", chatRequest{
		Model:       c.cfg.ChatModel,
		Messages:    messages,
		Temperature: temperature,
	}, &out)
	if err != nil {
		return "", "", err
	}
	if len(out.Choices) == 0 {
		return c.cfg.ChatModel, "", nil
	}
	return c.cfg.ChatModel, out.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("openai error response", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("openai %s: status %d: %s", path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
