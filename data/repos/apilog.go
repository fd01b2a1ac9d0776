package repos

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/DosDaiynSol/infinity-life-assistant/data"
)

type ApiLogRepo struct {
	db *sqlx.DB
}

func NewApiLogRepo(db *sqlx.DB) *ApiLogRepo {
	return &ApiLogRepo{db}
}

func (r *ApiLogRepo) Insert(log data.ApiRequestLog) error {
	query := `
		INSERT INTO api_request_log (keyword, phase, result_count, new_count, created_at)
		VALUES (:keyword, :phase, :result_count, :new_count, now())`

	_, err := r.db.NamedExec(query, log)
	if err != nil {
		return fmt.Errorf("insert api request log: %w", err)
	}

	return nil
}

func (r *ApiLogRepo) CountSince(since time.Time) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM api_request_log WHERE created_at >= $1"

	err := r.db.Get(&count, query, since)
	if err != nil {
		return 0, fmt.Errorf("count api requests since: %w", err)
	}

	return count, nil
}
