package models

// Threads keyword-search response (graph API shape).
type ThreadsSearchResponse struct {
	Data []ThreadsPost `json:"data"`
}

type ThreadsPost struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
}

type ThreadsReplyResponse struct {
	ID string `json:"id"`
}

type ThreadsErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
