package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

const threadsSearchFields = "id,text,username,permalink,timestamp"

// ThreadsClient wraps the two graph API operations the engine needs: keyword
// search over the public post index and publishing a reply. Transient
// failures are returned as errors; the engine logs them and moves on.
type ThreadsClient struct {
	logger  *slog.Logger
	client  *http.Client
	pool    *ProxyPool
	baseURL string
	token   string
}

// NewThreadsClient builds a client. pool may be nil, in which case every
// request uses the provided http client directly.
func NewThreadsClient(logger *slog.Logger, client *http.Client, pool *ProxyPool, baseURL, token string) *ThreadsClient {
	return &ThreadsClient{
		logger:  logger,
		client:  client,
		pool:    pool,
		baseURL: baseURL,
		token:   token,
	}
}

// Search returns public posts matching the keyword, created at or after
// sinceUnix. May return fewer than limit; zero results is not an error.
func (c *ThreadsClient) Search(ctx context.Context, keyword string, sinceUnix int64, limit int) ([]models.ThreadsPost, error) {
	params := neturl.Values{}
	params.Set("q", keyword)
	params.Set("search_type", "TOP")
	params.Set("fields", threadsSearchFields)
	params.Set("since", strconv.FormatInt(sinceUnix, 10))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("access_token", c.token)

	url := fmt.Sprintf("%s/keyword_search?%s", c.baseURL, params.Encode())

	var resp models.ThreadsSearchResponse
	requestMs, err := c.doJSON(ctx, http.MethodGet, url, &resp)
	if err != nil {
		return nil, fmt.Errorf("(%dms) search %q: %w", requestMs, keyword, err)
	}

	c.logger.Debug("threads search", "keyword", keyword, "results", len(resp.Data), "request_ms", requestMs)
	return resp.Data, nil
}

// Reply publishes a text reply under the given post and returns the new reply
// id. The graph API is two-step: create a reply container, then publish it.
func (c *ThreadsClient) Reply(ctx context.Context, postID, text string) (string, error) {
	params := neturl.Values{}
	params.Set("media_type", "TEXT")
	params.Set("text", text)
	params.Set("reply_to_id", postID)
	params.Set("access_token", c.token)

	createURL := fmt.Sprintf("%s/me/threads?%s", c.baseURL, params.Encode())

	var container models.ThreadsReplyResponse
	requestMs, err := c.doJSON(ctx, http.MethodPost, createURL, &container)
	if err != nil {
		return "", fmt.Errorf("(%dms) create reply container: %w", requestMs, err)
	}
	if container.ID == "" {
		return "", fmt.Errorf("create reply container: empty container id")
	}

	publishParams := neturl.Values{}
	publishParams.Set("creation_id", container.ID)
	publishParams.Set("access_token", c.token)

	publishURL := fmt.Sprintf("%s/me/threads_publish?%s", c.baseURL, publishParams.Encode())

	var published models.ThreadsReplyResponse
	requestMs, err = c.doJSON(ctx, http.MethodPost, publishURL, &published)
	if err != nil {
		return "", fmt.Errorf("(%dms) publish reply: %w", requestMs, err)
	}
	if published.ID == "" {
		return "", fmt.Errorf("publish reply: empty reply id")
	}

	c.logger.Info("reply published", "post_id", postID, "reply_id", published.ID)
	return published.ID, nil
}

func (c *ThreadsClient) doJSON(ctx context.Context, method, url string, dest any) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "infinity-life-assistant")

	client := c.client
	host := ""
	if c.pool != nil {
		client, host = c.pool.Next()
	}

	start := time.Now()
	resp, err := client.Do(req)
	requestMs := time.Since(start).Milliseconds()
	if err != nil {
		if host != "" {
			c.pool.MarkFailure(host)
		}
		return requestMs, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests && host != "" {
		c.pool.MarkRateLimited(host)
	}

	if resp.StatusCode != http.StatusOK {
		if host != "" {
			c.pool.MarkFailure(host)
		}
		body, _ := io.ReadAll(resp.Body)
		var apiErr models.ThreadsErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return requestMs, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return requestMs, fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if host != "" {
			c.pool.MarkFailure(host)
		}
		return requestMs, err
	}

	if host != "" {
		c.pool.MarkSuccess(host)
	}
	return requestMs, nil
}
