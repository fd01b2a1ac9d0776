package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		ClinicName:     "Infinity Life",
		ClinicPhone:    "+7 701 234 56 78",
		ReplyMaxLength: 450,
	}
}

func chatReply(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestClassify_ParsesVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		fmt.Fprint(w, chatReply(`{"valid":true,"reason":"ищет остеопата","matched_topic":"остеопатия"}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(slog.Default(), testConfig(server.URL))
	result, err := client.Classify(context.Background(), "Кто посоветует остеопата в Астане?", "aruzhan")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "остеопатия", result.MatchedTopic)
}

func TestClassify_MalformedVerdictIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("not json"))
	}))
	defer server.Close()

	client := NewOpenAIClient(slog.Default(), testConfig(server.URL))
	_, err := client.Classify(context.Background(), "текст", "user")

	assert.Error(t, err)
}

func TestGenerate_AddsGreetingAndPhone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("Мы будем рады помочь со сколиозом, приходите на консультацию."))
	}))
	defer server.Close()

	client := NewOpenAIClient(slog.Default(), testConfig(server.URL))
	morning := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	reply, err := client.Generate(context.Background(), "Болит спина", "сколиоз", morning)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "Доброе утро!"), reply)
	assert.Contains(t, reply, "+7 701 234 56 78")
	assert.LessOrEqual(t, len([]rune(reply)), 450)
}

func TestGenerate_KeepsExistingGreeting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("Добрый вечер! Запишитесь к нам на приём."))
	}))
	defer server.Close()

	client := NewOpenAIClient(slog.Default(), testConfig(server.URL))
	reply, err := client.Generate(context.Background(), "текст", "массаж", time.Now())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "Добрый вечер!"), reply)
	assert.False(t, strings.Contains(strings.TrimPrefix(reply, "Добрый вечер!"), "Добрый вечер!"))
}

func TestGenerate_TruncatesLongReplies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply(strings.Repeat("очень длинный ответ ", 60)))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ReplyMaxLength = 200
	client := NewOpenAIClient(slog.Default(), cfg)
	reply, err := client.Generate(context.Background(), "текст", "массаж", time.Now())

	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(reply)), 200)
	assert.Contains(t, reply, cfg.ClinicPhone, "phone must survive truncation")
}

func TestGreetingFor(t *testing.T) {
	assert.Equal(t, "Доброе утро!", GreetingFor(time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Добрый день!", GreetingFor(time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Добрый вечер!", GreetingFor(time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Здравствуйте!", GreetingFor(time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)))
}

func TestComplete_SurfacesApiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(slog.Default(), testConfig(server.URL))
	_, err := client.Classify(context.Background(), "текст", "user")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}
