package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
)

type PostRepo struct {
	db *sqlx.DB
}

func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db}
}

// InsertIfAbsent stores the post with status "new" and reports whether a row
// was actually inserted. The unique post_id constraint is the authoritative
// dedup point: rediscovery via another keyword is a no-op.
func (r *PostRepo) InsertIfAbsent(post data.Post) (bool, error) {
	query := `
		INSERT INTO posts (post_id, username, text, permalink, posted_at, matched_keyword, phase, status, created_at)
		VALUES (:post_id, :username, :text, :permalink, :posted_at, :matched_keyword, :phase, 'new', now())
		ON CONFLICT (post_id) DO NOTHING
		RETURNING id`

	rows, err := r.db.NamedQuery(query, post)
	if err != nil {
		return false, fmt.Errorf("insert post: %w", err)
	}
	defer rows.Close()

	return rows.Next(), nil
}

func (r *PostRepo) Exists(postID string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM posts WHERE post_id = $1)"

	err := r.db.Get(&exists, query, postID)
	if err != nil {
		return false, fmt.Errorf("post exists: %w", err)
	}

	return exists, nil
}

// GetByStatus returns up to limit posts in the given status, oldest first.
func (r *PostRepo) GetByStatus(status enums.Status, limit int) ([]data.Post, error) {
	var posts []data.Post
	query := `
		SELECT *
		FROM posts
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	err := r.db.Select(&posts, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("get posts by status: %w", err)
	}

	return posts, nil
}

func (r *PostRepo) GetByPostID(postID string) (*data.Post, error) {
	var post data.Post
	query := "SELECT * FROM posts WHERE post_id = $1"

	err := r.db.Get(&post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post by post id: %w", err)
	}

	return &post, nil
}

// MarkSkipped records a classifier rejection.
func (r *PostRepo) MarkSkipped(id int64, reason string) error {
	query := `
		UPDATE posts
		SET status = 'skipped', valid_reason = $2, processed_at = now()
		WHERE id = $1`

	_, err := r.db.Exec(query, id, reason)
	if err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}

	return nil
}

// MarkValidated records classifier approval without a sent reply (quota,
// interval, working hours, or a send failure).
func (r *PostRepo) MarkValidated(id int64, reason, matchedTopic string) error {
	query := `
		UPDATE posts
		SET status = 'validated', valid_reason = $2, matched_topic = $3, processed_at = now()
		WHERE id = $1`

	_, err := r.db.Exec(query, id, reason, matchedTopic)
	if err != nil {
		return fmt.Errorf("mark validated: %w", err)
	}

	return nil
}

// MarkReplied records a published reply. reply_text and reply_id are set only
// here, keeping them non-null exactly when status is replied.
func (r *PostRepo) MarkReplied(id int64, matchedTopic, replyText, replyID string, repliedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = 'replied', matched_topic = $2, reply_text = $3, reply_id = $4,
		    processed_at = now(), replied_at = $5
		WHERE id = $1`

	_, err := r.db.Exec(query, id, matchedTopic, replyText, replyID, repliedAt)
	if err != nil {
		return fmt.Errorf("mark replied: %w", err)
	}

	return nil
}

// CountRepliedSince returns how many replies were sent at or after the given
// instant. Used by the quota manager with local midnight.
func (r *PostRepo) CountRepliedSince(since time.Time) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM posts WHERE status = 'replied' AND replied_at >= $1"

	err := r.db.Get(&count, query, since)
	if err != nil {
		return 0, fmt.Errorf("count replied since: %w", err)
	}

	return count, nil
}

func (r *PostRepo) CountByStatus() ([]data.StatusCount, error) {
	var counts []data.StatusCount
	query := `
		SELECT status, COUNT(*) AS count
		FROM posts
		GROUP BY status`

	err := r.db.Select(&counts, query)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}

	return counts, nil
}
