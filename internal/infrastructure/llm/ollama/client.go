package ollama

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/infrastructure/resilience"
)

// Client talks to the Ollama chat API and constrains responses with a JSON
// schema, so the model output can be validated into a report payload.
type Client struct {
	baseURL    string
	model      string
	httpClient *httpDoer
	exec       *resilience.Executor
}

func New(baseURL, model string, timeout time.Duration, exec *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: newHTTPDoer(timeout),
		exec:       exec,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExtractJSON sends one blocking structured-output request. The schema is
// passed through as the "format" constraint; the response content is returned
// verbatim for schema validation by the caller.
func (c *Client) ExtractJSON(ctx context.Context, settings domain.ConversionSettings, prompt string, schema map[string]any) ([]byte, error) {
	baseURL := strings.TrimRight(settings.OllamaURL, "/")
	if baseURL == "" {
		baseURL = c.baseURL
	}
	model := settings.OllamaModel
	if model == "" {
		model = c.model
	}

	reqBody := map[string]any{
		"model":    model,
		"messages": []chatMessage{{Role: "user", Content: prompt}},
		"format":   schema,
		"stream":   false,
		"options":  map[string]any{"temperature": 0.0},
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}

	call := func(ctx context.Context) error {
		return c.httpClient.postJSON(ctx, baseURL+"/api/chat", reqBody, &response, "chat")
	}
	var err error
	if c.exec != nil {
		err = c.exec.Execute(ctx, "ollama_chat", call, classifyForBreaker)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, classifyError("ollama chat", err)
	}

	content := strings.TrimSpace(response.Message.Content)
	if content == "" {
		return nil, domain.WrapError(domain.ErrSchemaMismatch, "ollama chat", errors.New("empty response content"))
	}
	return []byte(content), nil
}
