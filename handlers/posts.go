package handlers

import (
	"net/http"
	"strconv"

	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

const defaultPostsLimit = 50

type PostGetter interface {
	GetByStatus(status enums.Status, limit int) ([]data.Post, error)
	GetByPostID(postID string) (*data.Post, error)
}

// PostsHandler exposes discovered posts for manual review. Validated posts
// are the interesting set: relevant, but never replied to because a quota
// blocked them or the send failed.
type PostsHandler struct {
	repo PostGetter
}

func NewPostsHandler(repo PostGetter) *PostsHandler {
	return &PostsHandler{repo: repo}
}

func (h *PostsHandler) GetPosts(w http.ResponseWriter, r *http.Request) Result {
	status := enums.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = enums.StatusValidated
	}
	switch status {
	case enums.StatusNew, enums.StatusValidated, enums.StatusReplied, enums.StatusSkipped:
	default:
		return BadRequest("unknown status: " + string(status))
	}

	limit := defaultPostsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return BadRequest("limit must be a positive integer")
		}
		limit = parsed
	}

	posts, err := h.repo.GetByStatus(status, limit)
	if err != nil {
		return InternalError(err, "Failed to get posts")
	}

	views := make([]models.PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, toPostView(post))
	}

	return Ok(models.GetPostsResponse{Posts: views})
}

func (h *PostsHandler) GetPost(w http.ResponseWriter, r *http.Request) Result {
	postID := r.PathValue("id")
	if postID == "" {
		return BadRequest("missing post id")
	}

	post, err := h.repo.GetByPostID(postID)
	if err != nil {
		return InternalError(err, "Failed to get post")
	}
	if post == nil {
		return NotFound("post not found")
	}

	return Ok(toPostView(*post))
}

func toPostView(post data.Post) models.PostView {
	view := models.PostView{
		PostID:         post.PostID,
		Username:       post.Username,
		Text:           post.Text,
		Permalink:      post.Permalink,
		PostedAt:       post.PostedAt,
		MatchedKeyword: post.MatchedKeyword,
		Phase:          string(post.Phase),
		Status:         string(post.Status),
		CreatedAt:      post.CreatedAt,
	}
	if post.ValidReason.Valid {
		view.ValidReason = post.ValidReason.String
	}
	if post.MatchedTopic.Valid {
		view.MatchedTopic = post.MatchedTopic.String
	}
	if post.ReplyText.Valid {
		view.ReplyText = post.ReplyText.String
	}
	if post.ReplyID.Valid {
		view.ReplyID = post.ReplyID.String
	}
	return view
}
