package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/llm"
	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

type fakeSearch struct {
	results map[string][]models.ThreadsPost
	err     error
	calls   []string
	onCall  func(keyword string)
}

func (f *fakeSearch) Search(_ context.Context, keyword string, _ int64, _ int) ([]models.ThreadsPost, error) {
	f.calls = append(f.calls, keyword)
	if f.onCall != nil {
		f.onCall(keyword)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[keyword], nil
}

type fakeReply struct {
	err     error
	replies []string
}

func (f *fakeReply) Reply(_ context.Context, postID, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.replies = append(f.replies, postID)
	return "reply-" + postID, nil
}

type fakeClassifier struct {
	result llm.ValidationResult
	err    error
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string) (llm.ValidationResult, error) {
	if f.err != nil {
		return llm.ValidationResult{}, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string, _ time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeStore struct {
	posts  []*data.Post
	nextID int64
}

func (f *fakeStore) InsertIfAbsent(post data.Post) (bool, error) {
	for _, existing := range f.posts {
		if existing.PostID == post.PostID {
			return false, nil
		}
	}
	f.nextID++
	post.ID = f.nextID
	post.Status = enums.StatusNew
	post.CreatedAt = time.Now()
	f.posts = append(f.posts, &post)
	return true, nil
}

func (f *fakeStore) GetByStatus(status enums.Status, limit int) ([]data.Post, error) {
	var result []data.Post
	for _, post := range f.posts {
		if post.Status == status && len(result) < limit {
			result = append(result, *post)
		}
	}
	return result, nil
}

func (f *fakeStore) MarkSkipped(id int64, reason string) error {
	post := f.byID(id)
	post.Status = enums.StatusSkipped
	post.ValidReason = sql.NullString{String: reason, Valid: true}
	return nil
}

func (f *fakeStore) MarkValidated(id int64, reason, matchedTopic string) error {
	post := f.byID(id)
	post.Status = enums.StatusValidated
	post.ValidReason = sql.NullString{String: reason, Valid: true}
	post.MatchedTopic = sql.NullString{String: matchedTopic, Valid: true}
	return nil
}

func (f *fakeStore) MarkReplied(id int64, matchedTopic, replyText, replyID string, repliedAt time.Time) error {
	post := f.byID(id)
	post.Status = enums.StatusReplied
	post.MatchedTopic = sql.NullString{String: matchedTopic, Valid: true}
	post.ReplyText = sql.NullString{String: replyText, Valid: true}
	post.ReplyID = sql.NullString{String: replyID, Valid: true}
	post.RepliedAt = sql.NullTime{Time: repliedAt, Valid: true}
	return nil
}

func (f *fakeStore) CountRepliedSince(since time.Time) (int, error) {
	count := 0
	for _, post := range f.posts {
		if post.Status == enums.StatusReplied && post.RepliedAt.Valid && !post.RepliedAt.Time.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountByStatus() ([]data.StatusCount, error) {
	byStatus := make(map[enums.Status]int)
	for _, post := range f.posts {
		byStatus[post.Status]++
	}
	var counts []data.StatusCount
	for status, count := range byStatus {
		counts = append(counts, data.StatusCount{Status: status, Count: count})
	}
	return counts, nil
}

func (f *fakeStore) byID(id int64) *data.Post {
	for _, post := range f.posts {
		if post.ID == id {
			return post
		}
	}
	return &data.Post{}
}

func (f *fakeStore) addNew(postID, text string) *data.Post {
	f.nextID++
	post := &data.Post{
		ID:        f.nextID,
		PostID:    postID,
		Text:      text,
		Status:    enums.StatusNew,
		CreatedAt: time.Now(),
	}
	f.posts = append(f.posts, post)
	return post
}

func (f *fakeStore) addRepliedAt(postID string, repliedAt time.Time) {
	f.nextID++
	f.posts = append(f.posts, &data.Post{
		ID:        f.nextID,
		PostID:    postID,
		Status:    enums.StatusReplied,
		RepliedAt: sql.NullTime{Time: repliedAt, Valid: true},
	})
}

type fakeApiLog struct {
	entries []data.ApiRequestLog
}

func (f *fakeApiLog) Insert(log data.ApiRequestLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeApiLog) CountSince(_ time.Time) (int, error) {
	return len(f.entries), nil
}

type allowAllLanguage struct{}

func (allowAllLanguage) Allows(string) bool { return true }

type testEngine struct {
	engine     *Engine
	search     *fakeSearch
	reply      *fakeReply
	classifier *fakeClassifier
	generator  *fakeGenerator
	store      *fakeStore
	apiLog     *fakeApiLog
	quota      *Quota
	bus        *Bus
}

func newTestEngine(cfg Config) *testEngine {
	if cfg.LocaleKeyword == "" {
		cfg.LocaleKeyword = "Астана"
	}
	if cfg.CyclesPerDay == 0 {
		cfg.CyclesPerDay = 1
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = 25
	}
	if cfg.ValidationBatch == 0 {
		cfg.ValidationBatch = 20
	}

	store := &fakeStore{}
	search := &fakeSearch{results: make(map[string][]models.ThreadsPost)}
	reply := &fakeReply{}
	classifier := &fakeClassifier{result: llm.ValidationResult{Valid: true, MatchedTopic: "остеопатия"}}
	generator := &fakeGenerator{text: "Добрый день! Запишитесь: +7 701 234 56 78"}
	apiLog := &fakeApiLog{}
	bus := NewBus()
	quota := NewQuota(store, time.UTC, 10, 30*time.Minute, 0, 24)

	eng := New(slog.Default(), search, reply, classifier, generator, store, apiLog, allowAllLanguage{}, bus, quota, time.UTC, cfg)
	eng.sleep = func(time.Duration) {}

	return &testEngine{
		engine:     eng,
		search:     search,
		reply:      reply,
		classifier: classifier,
		generator:  generator,
		store:      store,
		apiLog:     apiLog,
		quota:      quota,
		bus:        bus,
	}
}
