// Package llm talks to an OpenAI-compatible chat completions endpoint. Two
// operations: classifying a discovered post as a real patient request and
// generating the outreach reply. Both are best-effort; callers treat errors
// as "no result" and never retry.
package llm

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

// ValidationResult is the structured classifier verdict stored on the post.
type ValidationResult struct {
	Valid        bool   `json:"valid"`
	Reason       string `json:"reason"`
	MatchedTopic string `json:"matched_topic"`
}

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	ClinicName     string
	ClinicPhone    string
	ReplyMaxLength int
}

type OpenAIClient struct {
	logger *slog.Logger
	client *http.Client
	cfg    Config
}

func NewOpenAIClient(logger *slog.Logger, cfg Config) *OpenAIClient {
	return &OpenAIClient{
		logger: logger,
		client: &http.Client{Timeout: 60 * time.Second},
		cfg:    cfg,
	}
}

const classifySystemPrompt = `Ты фильтруешь посты из Threads для остеопатической клиники в Астане.
Пост валиден, только если автор ищет помощь с опорно-двигательным аппаратом
(остеопатия, массаж, боли в спине/шее, сколиоз, осанка, реабилитация) для себя
или близких, и находится в Астане или не указывает другой город.
Ответь строго JSON: {"valid": bool, "reason": "краткая причина", "matched_topic": "тема или пустая строка"}.`

// Classify asks the model whether the post is a genuine patient request.
func (c *OpenAIClient) Classify(ctx context.Context, text, username string) (ValidationResult, error) {
	userPrompt := fmt.Sprintf("Автор: @%s\nТекст поста:\n%s", username, text)

	content, err := c.complete(ctx, classifySystemPrompt, userPrompt, true)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("classify: %w", err)
	}

	var result ValidationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return ValidationResult{}, fmt.Errorf("classify: parse verdict: %w", err)
	}

	return result, nil
}

// Generate produces the reply text for a validated post. The raw model output
// is normalized afterwards: a time-of-day greeting up front, the clinic phone
// number present, and the configured length cap respected.
func (c *OpenAIClient) Generate(ctx context.Context, text, matchedTopic string, now time.Time) (string, error) {
	systemPrompt := fmt.Sprintf(`Ты администратор клиники %q в Астане.
Напиши короткий тёплый ответ на пост человека, который ищет помощь (тема: %s).
Без давления и без обещаний вылечить. Предложи записаться на консультацию.
Обычный текст без разметки, не длиннее %d символов.`,
		c.cfg.ClinicName, matchedTopic, c.cfg.ReplyMaxLength)

	content, err := c.complete(ctx, systemPrompt, text, false)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	return c.finalizeReply(content, now), nil
}

func (c *OpenAIClient) finalizeReply(reply string, now time.Time) string {
	reply = strings.TrimSpace(reply)

	if !hasGreeting(reply) {
		reply = GreetingFor(now) + " " + reply
	}

	suffix := ""
	if !strings.Contains(reply, c.cfg.ClinicPhone) {
		suffix = " " + c.cfg.ClinicName + ": " + c.cfg.ClinicPhone
	}

	budget := c.cfg.ReplyMaxLength - len([]rune(suffix))
	if runes := []rune(reply); len(runes) > budget {
		reply = strings.TrimSpace(string(runes[:budget-1])) + "…"
	}

	return reply + suffix
}

var greetings = []string{"Доброе утро", "Добрый день", "Добрый вечер", "Здравствуйте"}

func hasGreeting(reply string) bool {
	for _, greeting := range greetings {
		if strings.HasPrefix(reply, greeting) {
			return true
		}
	}
	return false
}

// GreetingFor picks the salutation matching the local time of day.
func GreetingFor(now time.Time) string {
	switch hour := now.Hour(); {
	case hour >= 5 && hour < 12:
		return "Доброе утро!"
	case hour >= 12 && hour < 18:
		return "Добрый день!"
	case hour >= 18 && hour < 23:
		return "Добрый вечер!"
	default:
		return "Здравствуйте!"
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.4,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	requestMs := time.Since(start).Milliseconds()
	if err != nil {
		return "", fmt.Errorf("(%dms) %w", requestMs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr chatResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}

	c.logger.Debug("llm completion", "model", c.cfg.Model, "request_ms", requestMs)
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
