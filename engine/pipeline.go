package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/metrics"
)

// RunValidation runs the classify-and-reply pipeline on its own, outside a
// search cycle. It shares the single-run guard with StartCycle.
func (e *Engine) RunValidation(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.mu.Lock()
	run := e.runID.String()
	cycle := e.cycle
	e.mu.Unlock()

	counts := &cycleCounts{}
	e.processNew(ctx, run, cycle, counts)
	return nil
}

// processNew pulls the oldest batch of new posts and classifies each one,
// replying when the quota gates allow it. Posts are handled strictly in
// order: post i+1 never starts before post i finishes, so the interval gate
// always sees a settled last-reply time.
func (e *Engine) processNew(ctx context.Context, run string, cycle int, counts *cycleCounts) {
	posts, err := e.store.GetByStatus(enums.StatusNew, e.cfg.ValidationBatch)
	if err != nil {
		err = errors.Wrap(err, "validation: fetch new posts")
		e.logger.Error("validation failed", "error", err)
		e.emit(Event{Type: EventError, RunID: run, Cycle: cycle, Message: err.Error()})
		return
	}
	if len(posts) == 0 {
		return
	}

	// Outside working hours the whole batch is skipped; discovery already
	// ran, the posts stay new for the next invocation.
	if !e.quota.WithinWorkingHours() {
		e.logger.Info("outside working hours, skipping validation batch", "posts", len(posts))
		return
	}

	for _, post := range posts {
		result, err := e.classifier.Classify(ctx, post.Text, post.Username)
		if err != nil {
			// Treated as invalid, never retried.
			metrics.LLMCalls.WithLabelValues("classify", "error").Inc()
			e.logger.Error("classification failed", "post_id", post.PostID, "error", err)
			e.emit(Event{Type: EventError, RunID: run, Cycle: cycle, PostID: post.PostID, Message: err.Error()})
			if err := e.store.MarkSkipped(post.ID, "classification failed"); err != nil {
				e.logger.Error("failed to mark post skipped", "post_id", post.PostID, "error", err)
			}
			counts.skipped++
			continue
		}
		metrics.LLMCalls.WithLabelValues("classify", "ok").Inc()

		if !result.Valid {
			if err := e.store.MarkSkipped(post.ID, result.Reason); err != nil {
				e.logger.Error("failed to mark post skipped", "post_id", post.PostID, "error", err)
			}
			counts.skipped++
			e.logger.Debug("post rejected by classifier", "post_id", post.PostID, "reason", result.Reason)
			continue
		}

		e.emit(Event{Type: EventValidated, RunID: run, Cycle: cycle, PostID: post.PostID, Message: result.MatchedTopic})

		exhausted, err := e.quota.DailyExhausted()
		if err != nil {
			e.logger.Error("quota check failed", "post_id", post.PostID, "error", err)
			e.markValidated(post.ID, post.PostID, "daily quota check failed", result.MatchedTopic)
			continue
		}
		if exhausted {
			e.markValidated(post.ID, post.PostID, "daily reply quota reached", result.MatchedTopic)
			continue
		}
		if e.quota.IntervalBlocked() {
			e.markValidated(post.ID, post.PostID, "reply interval not elapsed", result.MatchedTopic)
			continue
		}

		replyText, err := e.generator.Generate(ctx, post.Text, result.MatchedTopic, e.now().In(e.location))
		if err != nil {
			metrics.LLMCalls.WithLabelValues("generate", "error").Inc()
			e.logger.Error("reply generation failed", "post_id", post.PostID, "error", err)
			e.emit(Event{Type: EventError, RunID: run, Cycle: cycle, PostID: post.PostID, Message: err.Error()})
			e.markValidated(post.ID, post.PostID, "reply generation failed", result.MatchedTopic)
			continue
		}
		metrics.LLMCalls.WithLabelValues("generate", "ok").Inc()

		replyID, err := e.reply.Reply(ctx, post.PostID, replyText)
		if err != nil {
			e.logger.Error("reply send failed", "post_id", post.PostID, "error", err)
			e.emit(Event{Type: EventError, RunID: run, Cycle: cycle, PostID: post.PostID, Message: err.Error()})
			e.markValidated(post.ID, post.PostID, "reply send failed", result.MatchedTopic)
			continue
		}

		repliedAt := e.now()
		if err := e.store.MarkReplied(post.ID, result.MatchedTopic, replyText, replyID, repliedAt); err != nil {
			e.logger.Error("failed to mark post replied", "post_id", post.PostID, "error", err)
		}
		e.quota.RecordReply()
		metrics.RepliesSent.Inc()
		counts.replied++

		e.emit(Event{Type: EventReplied, RunID: run, Cycle: cycle, PostID: post.PostID, Message: replyID})
		e.logger.Info("replied to post", "post_id", post.PostID, "reply_id", replyID, "topic", result.MatchedTopic)
	}
}

func (e *Engine) markValidated(id int64, postID, reason, matchedTopic string) {
	if err := e.store.MarkValidated(id, reason, matchedTopic); err != nil {
		e.logger.Error("failed to mark post validated", "post_id", postID, "error", err)
	}
}
