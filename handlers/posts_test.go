package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

type fakePostRepo struct {
	posts      []data.Post
	lastStatus enums.Status
	lastLimit  int
}

func (f *fakePostRepo) GetByStatus(status enums.Status, limit int) ([]data.Post, error) {
	f.lastStatus = status
	f.lastLimit = limit
	return f.posts, nil
}

func (f *fakePostRepo) GetByPostID(postID string) (*data.Post, error) {
	for i := range f.posts {
		if f.posts[i].PostID == postID {
			return &f.posts[i], nil
		}
	}
	return nil, nil
}

func TestGetPosts_DefaultsToValidated(t *testing.T) {
	repo := &fakePostRepo{posts: []data.Post{{
		PostID:      "p1",
		Text:        "Ищу остеопата в Астане",
		Status:      enums.StatusValidated,
		ValidReason: sql.NullString{String: "daily reply quota reached", Valid: true},
	}}}
	handler := NewPostsHandler(repo)

	r := httptest.NewRequest(http.MethodGet, "/posts", nil)
	res := handler.GetPosts(httptest.NewRecorder(), r)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, enums.StatusValidated, repo.lastStatus)
	assert.Equal(t, defaultPostsLimit, repo.lastLimit)

	body := res.Body.(models.GetPostsResponse)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "daily reply quota reached", body.Posts[0].ValidReason)
}

func TestGetPosts_ExplicitStatusAndLimit(t *testing.T) {
	repo := &fakePostRepo{}
	handler := NewPostsHandler(repo)

	r := httptest.NewRequest(http.MethodGet, "/posts?status=replied&limit=5", nil)
	res := handler.GetPosts(httptest.NewRecorder(), r)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, enums.StatusReplied, repo.lastStatus)
	assert.Equal(t, 5, repo.lastLimit)
}

func TestGetPosts_RejectsUnknownStatus(t *testing.T) {
	handler := NewPostsHandler(&fakePostRepo{})

	r := httptest.NewRequest(http.MethodGet, "/posts?status=pending", nil)
	res := handler.GetPosts(httptest.NewRecorder(), r)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGetPosts_RejectsBadLimit(t *testing.T) {
	handler := NewPostsHandler(&fakePostRepo{})

	r := httptest.NewRequest(http.MethodGet, "/posts?limit=zero", nil)
	res := handler.GetPosts(httptest.NewRecorder(), r)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGetPost_NotFound(t *testing.T) {
	handler := NewPostsHandler(&fakePostRepo{})

	mux := http.NewServeMux()
	var res Result
	mux.HandleFunc("GET /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		res = handler.GetPost(w, r)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/missing", nil))

	assert.Equal(t, http.StatusNotFound, res.Code)
}
