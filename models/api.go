package models

import "time"

type RunCycleResponse struct {
	Started bool   `json:"started"`
	RunID   string `json:"runId,omitempty"`
	Cycle   int    `json:"cycle"`
	Message string `json:"message,omitempty"`
}

type StatusResponse struct {
	Running     bool   `json:"running"`
	RunID       string `json:"runId,omitempty"`
	Cycle       int    `json:"cycle"`
	LastReplyAt string `json:"lastReplyAt,omitempty"`
}

type StatsResponse struct {
	Posts         map[string]int        `json:"posts"`
	RepliesToday  int                   `json:"repliesToday"`
	SearchesToday int                   `json:"searchesToday"`
	Running       bool                  `json:"running"`
	Proxies       map[string]ProxyStats `json:"proxies,omitempty"`
}

type ProxyStats struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

type PostView struct {
	PostID         string    `json:"postId"`
	Username       string    `json:"username"`
	Text           string    `json:"text"`
	Permalink      string    `json:"permalink"`
	PostedAt       time.Time `json:"postedAt"`
	MatchedKeyword string    `json:"matchedKeyword"`
	Phase          string    `json:"phase"`
	Status         string    `json:"status"`
	ValidReason    string    `json:"validReason,omitempty"`
	MatchedTopic   string    `json:"matchedTopic,omitempty"`
	ReplyText      string    `json:"replyText,omitempty"`
	ReplyID        string    `json:"replyId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type GetPostsResponse struct {
	Posts []PostView `json:"posts"`
}
