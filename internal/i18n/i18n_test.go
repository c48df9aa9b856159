package i18n

import (
	"strings"
	"testing"
)

func TestInitAndMessage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got := Message("en", "GradingComplete", map[string]any{
		"ExamTitle": "Midterm",
		"Score":     12,
		"Total":     15,
	})
	if !strings.Contains(got, "Midterm") || !strings.Contains(got, "12/15") {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestMessageRussian(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got := Message("ru", "GradingComplete", map[string]any{
		"ExamTitle": "Контрольная",
		"Score":     5,
		"Total":     10,
	})
	if !strings.Contains(got, "Контрольная") || !strings.Contains(got, "5/10") {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestMessageMissingIDFallsBack(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := Message("en", "NoSuchMessage", nil); got != "NoSuchMessage" {
		t.Errorf("expected fallback to ID, got %q", got)
	}
}

func TestInitBadLanguage(t *testing.T) {
	if err := Init("not a lang!"); err == nil {
		t.Error("expected error for invalid language tag")
	}
}
