package engine

import (
	"context"
	"time"

	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/llm"
	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

// Collaborator interfaces consumed by the engine. The concrete Threads,
// OpenAI and Postgres clients satisfy them; tests swap in fakes.

type SearchClient interface {
	Search(ctx context.Context, keyword string, sinceUnix int64, limit int) ([]models.ThreadsPost, error)
}

type ReplyClient interface {
	Reply(ctx context.Context, postID, text string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text, username string) (llm.ValidationResult, error)
}

type Generator interface {
	Generate(ctx context.Context, text, matchedTopic string, now time.Time) (string, error)
}

type PostStore interface {
	InsertIfAbsent(post data.Post) (bool, error)
	GetByStatus(status enums.Status, limit int) ([]data.Post, error)
	MarkSkipped(id int64, reason string) error
	MarkValidated(id int64, reason, matchedTopic string) error
	MarkReplied(id int64, matchedTopic, replyText, replyID string, repliedAt time.Time) error
	CountRepliedSince(since time.Time) (int, error)
	CountByStatus() ([]data.StatusCount, error)
}

type ApiLogStore interface {
	Insert(log data.ApiRequestLog) error
	CountSince(since time.Time) (int, error)
}

type LanguageChecker interface {
	Allows(text string) bool
}
