package data

import (
	"database/sql"
	"time"

	"github.com/DosDaiynSol/infinity-life-assistant/enums"
)

// Post is a discovered Threads post considered for outreach. PostID is the
// platform id and the authoritative dedup key: a post is inserted at most
// once no matter how many keywords rediscover it.
type Post struct {
	ID             int64          `db:"id"`
	PostID         string         `db:"post_id"`
	Username       string         `db:"username"`
	Text           string         `db:"text"`
	Permalink      string         `db:"permalink"`
	PostedAt       time.Time      `db:"posted_at"`
	MatchedKeyword string         `db:"matched_keyword"`
	Phase          enums.Phase    `db:"phase"`
	Status         enums.Status   `db:"status"`
	ValidReason    sql.NullString `db:"valid_reason"`
	MatchedTopic   sql.NullString `db:"matched_topic"`
	ReplyText      sql.NullString `db:"reply_text"`
	ReplyID        sql.NullString `db:"reply_id"`
	CreatedAt      time.Time      `db:"created_at"`
	ProcessedAt    sql.NullTime   `db:"processed_at"`
	RepliedAt      sql.NullTime   `db:"replied_at"`
}

// ApiRequestLog records one external search call. Written for observability
// and the stats endpoint only; the engine never reads it back.
type ApiRequestLog struct {
	ID          int64     `db:"id"`
	Keyword     string    `db:"keyword"`
	Phase       string    `db:"phase"`
	ResultCount int       `db:"result_count"`
	NewCount    int       `db:"new_count"`
	CreatedAt   time.Time `db:"created_at"`
}

// StatusCount is one row of the per-status aggregate used by stats.
type StatusCount struct {
	Status enums.Status `db:"status"`
	Count  int          `db:"count"`
}
