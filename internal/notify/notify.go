// Package notify delivers best-effort push notifications. Delivery follows
// the grading path's contract: enqueue never blocks, a failed dispatch is
// logged and dropped, and the primary operation is never failed by a
// notification problem.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/backend/internal/i18n"
)

// Notification is one message addressed to a single recipient. Body is
// rendered from the template key and params in the recipient's language at
// dispatch time.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID int64          `json:"recipient_id"`
	Lang        string         `json:"lang"`
	TemplateKey string         `json:"template_key"`
	Params      map[string]any `json:"params"`
	DeepLink    string         `json:"deep_link,omitempty"`
}

// Sender delivers a rendered notification to the push backend.
type Sender interface {
	Send(ctx context.Context, n Notification, body string) error
}

// Queue is an asynchronous dispatcher: a buffered channel drained by one
// worker goroutine. When the buffer is full the notification is dropped
// with a log line rather than blocking the caller.
type Queue struct {
	sender  Sender
	ch      chan Notification
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	timeout time.Duration
}

// NewQueue starts a dispatch worker over the given sender.
func NewQueue(sender Sender, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	q := &Queue{
		sender:  sender,
		ch:      make(chan Notification, buffer),
		done:    make(chan struct{}),
		timeout: 10 * time.Second,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue queues a notification for delivery and returns immediately.
func (q *Queue) Enqueue(n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Lang == "" {
		n.Lang = "en"
	}
	select {
	case <-q.done:
		slog.Warn("notification dropped, queue closed", "id", n.ID, "template", n.TemplateKey)
		return
	default:
	}
	select {
	case q.ch <- n:
	default:
		slog.Warn("notification dropped, queue full", "id", n.ID, "template", n.TemplateKey)
	}
}

// Close stops accepting notifications, drains what was already queued, and
// waits for the worker to finish.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case n := <-q.ch:
			q.deliver(n)
		case <-q.done:
			for {
				select {
				case n := <-q.ch:
					q.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) deliver(n Notification) {
	body := i18n.Message(n.Lang, n.TemplateKey, n.Params)
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if err := q.sender.Send(ctx, n, body); err != nil {
		slog.Error("notification dispatch failed",
			"id", n.ID, "recipient", n.RecipientID, "template", n.TemplateKey, "error", err)
		return
	}
	slog.Debug("notification dispatched", "id", n.ID, "recipient", n.RecipientID)
}

// ConsoleSender logs notifications instead of delivering them. Used in local
// development where no push backend is configured.
type ConsoleSender struct{}

func (ConsoleSender) Send(_ context.Context, n Notification, body string) error {
	slog.Info("notification", "recipient", n.RecipientID, "body", body, "deep_link", n.DeepLink)
	return nil
}
