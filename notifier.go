package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/DosDaiynSol/infinity-life-assistant/data/repos"
	"github.com/DosDaiynSol/infinity-life-assistant/engine"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/notifiers"
)

const reviewPostsInDigest = 10

// SummaryNotifier listens on the progress bus and mails the operator a digest
// after every cycle run.
type SummaryNotifier struct {
	logger *slog.Logger
	mailer *notifiers.Mailer
	bus    *engine.Bus
	posts  *repos.PostRepo
	to     string
}

func NewSummaryNotifier(logger *slog.Logger, mailer *notifiers.Mailer, bus *engine.Bus, posts *repos.PostRepo, to string) *SummaryNotifier {
	return &SummaryNotifier{
		logger: logger,
		mailer: mailer,
		bus:    bus,
		posts:  posts,
		to:     to,
	}
}

func (n *SummaryNotifier) Start(ctx context.Context) {
	id, ch, _ := n.bus.Subscribe()
	defer n.bus.Unsubscribe(id)

	var summary engine.Event
	replied := 0

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-ch:
			if !open {
				return
			}
			switch event.Type {
			case engine.EventStart:
				summary = engine.Event{}
				replied = 0
			case engine.EventReplied:
				replied++
			case engine.EventSummary:
				summary = event
			case engine.EventEnd:
				if err := n.sendDigest(summary, replied); err != nil {
					n.logger.Error("failed to send cycle summary", "error", err)
				}
			}
		}
	}
}

func (n *SummaryNotifier) sendDigest(summary engine.Event, replied int) error {
	digest := notifiers.CycleSummary{
		RunID:     summary.RunID,
		Cycle:     summary.Cycle,
		Found:     summary.Found,
		Passed:    summary.Passed,
		Saved:     summary.Saved,
		Duplicate: summary.Duplicate,
		Replied:   replied,
		Stopped:   summary.Message == "stopped by request",
	}

	validated, err := n.posts.GetByStatus(enums.StatusValidated, reviewPostsInDigest)
	if err != nil {
		return errors.Wrap(err, "fetch posts for review")
	}
	for _, post := range validated {
		digest.NeedsReview = append(digest.NeedsReview, notifiers.ReviewPost{
			Username:  post.Username,
			Text:      post.Text,
			Reason:    post.ValidReason.String,
			Permalink: post.Permalink,
		})
	}

	mail, err := n.mailer.CycleSummaryEmail(n.to, digest)
	if err != nil {
		return errors.Wrap(err, "render cycle summary")
	}
	return errors.Wrap(n.mailer.Send(mail), "send cycle summary")
}
