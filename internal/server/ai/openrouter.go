package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL адрес OpenRouter-совместимого chat completions API
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel модель по умолчанию для генерации стикеров
	DefaultModel = "openai/gpt-4o-mini"

	requestTimeout = 30 * time.Second
)

// Config конфигурация OpenRouter клиента
type Config struct {
	// APIKey ключ API (env OPENROUTER_API_KEY)
	APIKey string
	// BaseURL переопределяет адрес API (для тестов)
	BaseURL string
	// Model идентификатор модели
	Model string
}

// Client клиент OpenRouter-совместимого chat completions API.
// Генерирует идеи для стикеров по теме брейншторма.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
}

// NewClient создает новый OpenRouter клиент
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// chatRequest запрос chat completions API
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse ответ chat completions API (только нужные поля)
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateNotes запрашивает у модели count коротких идей по теме.
// Возвращает ровно count строк либо ошибку: частичный результат
// считается сбоем генерации.
func (c *Client) GenerateNotes(ctx context.Context, topic string, count int) ([]string, error) {
	prompt := fmt.Sprintf(
		"Generate exactly %d short brainstorming ideas for the topic %q. "+
			"Reply with a numbered list only, one idea per line, no extra text. "+
			"Each idea must fit on a sticky note (at most 12 words).",
		count, topic,
	)

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completions request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("chat completions returned non-OK status",
			"status", resp.StatusCode)
		return nil, fmt.Errorf("chat completions failed with status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat completions returned no choices")
	}

	notes := parseNumberedList(chatResp.Choices[0].Message.Content)
	if len(notes) < count {
		return nil, fmt.Errorf("model returned %d ideas, want %d", len(notes), count)
	}

	return notes[:count], nil
}

// parseNumberedList разбирает нумерованный список модели в слайс идей.
// Принимает форматы "1. idea", "1) idea", "- idea" и голые строки.
func parseNumberedList(content string) []string {
	var notes []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")

		// Отрезаем нумерацию вида "12." или "12)"
		if i := strings.IndexAny(line, ".)"); i > 0 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}

		if line != "" {
			notes = append(notes, line)
		}
	}
	return notes
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
