package job

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	j := New("job-1", "acme-store", "Red Sneakers")

	if j.JobID != "job-1" {
		t.Errorf("expected JobID job-1, got %s", j.JobID)
	}
	if j.Status != StatusQueued {
		t.Errorf("expected status %s, got %s", StatusQueued, j.Status)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress 0, got %d", j.Progress)
	}
	if j.ShopName != "acme-store" {
		t.Errorf("expected shop name acme-store, got %s", j.ShopName)
	}
	if j.Title != "Red Sneakers" {
		t.Errorf("expected title Red Sneakers, got %s", j.Title)
	}
	if j.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if !j.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be unset")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusQueued, false},
		{StatusProcessing, false},
		{StatusDone, true},
		{StatusFailed, true},
		{StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("Status(%q).IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusQueued, StatusProcessing, true},
		{StatusQueued, StatusFailed, true},
		{StatusQueued, StatusDone, false},
		{StatusProcessing, StatusProcessing, true},
		{StatusProcessing, StatusDone, true},
		{StatusProcessing, StatusFailed, true},
		{StatusDone, StatusProcessing, false},
		{StatusDone, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusDone, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestFields_Apply_ProgressClamped(t *testing.T) {
	j := New("job-1", "shop", "title")

	if err := ProgressFields(150).apply(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Progress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", j.Progress)
	}
	if j.Status != StatusProcessing {
		t.Errorf("expected status %s, got %s", StatusProcessing, j.Status)
	}

	if err := ProgressFields(-5).apply(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress clamped to 0, got %d", j.Progress)
	}
}

func TestFields_Apply_TerminalGuard(t *testing.T) {
	j := New("job-1", "shop", "title")

	if err := SuccessFields("http://host/static/v.mp4", "v.mp4", "caption").apply(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Status != StatusDone {
		t.Fatalf("expected status %s, got %s", StatusDone, j.Status)
	}
	if j.Progress != 100 {
		t.Errorf("expected progress 100, got %d", j.Progress)
	}
	if j.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}

	// A stale duplicate must not resurrect a finished job.
	if err := ProgressFields(50).apply(j); err != ErrTerminalState {
		t.Errorf("expected ErrTerminalState, got %v", err)
	}
	if err := FailureFields("late failure").apply(j); err != ErrTerminalState {
		t.Errorf("expected ErrTerminalState, got %v", err)
	}
	if j.Status != StatusDone {
		t.Errorf("terminal status changed to %s", j.Status)
	}
}

func TestFields_Apply_Failure(t *testing.T) {
	j := New("job-1", "shop", "title")

	if err := FailureFields("generation blew up").apply(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, j.Status)
	}
	if j.Error != "generation blew up" {
		t.Errorf("expected error message, got %q", j.Error)
	}
	if j.URL != "" || j.Caption != "" {
		t.Error("url/caption must stay empty on failure")
	}
	if j.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestFields_Apply_StampsUpdatedAt(t *testing.T) {
	j := New("job-1", "shop", "title")
	before := j.UpdatedAt

	time.Sleep(time.Millisecond)
	if err := ProgressFields(42).apply(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !j.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestJob_Clone(t *testing.T) {
	j := New("job-1", "shop", "title")
	c := j.Clone()

	c.Status = StatusFailed
	c.Progress = 99

	if j.Status != StatusQueued {
		t.Errorf("mutating the clone changed the original: %s", j.Status)
	}
	if j.Progress != 0 {
		t.Errorf("mutating the clone changed the original progress: %d", j.Progress)
	}
}
