package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/classhub/backend/internal/i18n"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []string
	failAll bool
}

func (r *recordingSender) Send(_ context.Context, _ Notification, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("push backend down")
	}
	r.sent = append(r.sent, body)
	return nil
}

func (r *recordingSender) bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func initBundle(t *testing.T) {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
}

func TestQueueDelivers(t *testing.T) {
	initBundle(t)
	sender := &recordingSender{}
	q := NewQueue(sender, 8)

	q.Enqueue(Notification{
		RecipientID: 42,
		TemplateKey: "GradingComplete",
		Params:      map[string]any{"ExamTitle": "Midterm", "Score": 7, "Total": 10},
		DeepLink:    "classhub://submissions/1",
	})
	q.Close()

	bodies := sender.bodies()
	if len(bodies) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], "Midterm") || !strings.Contains(bodies[0], "7/10") {
		t.Errorf("unexpected body: %q", bodies[0])
	}
}

func TestQueueFailureDoesNotPropagate(t *testing.T) {
	initBundle(t)
	sender := &recordingSender{failAll: true}
	q := NewQueue(sender, 8)

	// Enqueue must not block or panic even though every send fails.
	for i := 0; i < 5; i++ {
		q.Enqueue(Notification{RecipientID: int64(i), TemplateKey: "GradingComplete"})
	}
	q.Close()

	if len(sender.bodies()) != 0 {
		t.Error("expected no successful deliveries")
	}
}

func TestQueueAssignsIDAndLang(t *testing.T) {
	initBundle(t)
	sender := &recordingSender{}
	q := NewQueue(sender, 1)
	q.Enqueue(Notification{RecipientID: 1, TemplateKey: "NoSuchTemplate"})
	q.Close()

	bodies := sender.bodies()
	if len(bodies) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(bodies))
	}
	// Missing templates fall back to the key rather than failing.
	if bodies[0] != "NoSuchTemplate" {
		t.Errorf("expected template-key fallback, got %q", bodies[0])
	}
}

func TestEnqueueAfterCloseDoesNotPanic(t *testing.T) {
	initBundle(t)
	q := NewQueue(&recordingSender{}, 1)
	q.Close()
	q.Enqueue(Notification{RecipientID: 1, TemplateKey: "GradingComplete"})
}
