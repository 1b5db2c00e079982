package job

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/adreel/adreel-api/internal/queue"
)

type fakeQueue struct {
	pingErr   error
	submitErr error
	submitted []queue.Task
}

func (q *fakeQueue) Submit(_ context.Context, t queue.Task) error {
	if q.submitErr != nil {
		return q.submitErr
	}
	q.submitted = append(q.submitted, t)
	return nil
}

func (q *fakeQueue) Ping(_ context.Context) error { return q.pingErr }

type fakeUploads struct {
	saved   map[string]string
	saveErr error
}

func (u *fakeUploads) SaveUpload(_ context.Context, name string, data io.Reader) (string, error) {
	if u.saveErr != nil {
		return "", u.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	if u.saved == nil {
		u.saved = make(map[string]string)
	}
	u.saved[name] = string(b)
	return "/uploads/" + name, nil
}

func TestService_Submit(t *testing.T) {
	repo := NewMemoryRepository()
	q := &fakeQueue{}
	svc := NewService(repo, q, &fakeUploads{}, nil)

	jobID, err := svc.Submit(context.Background(), SubmitInput{
		ImageURLs:   `["https://cdn.example.com/a.jpg","https://cdn.example.com/b.jpg"]`,
		Title:       "Summer Dress",
		Description: "Lightweight cotton dress",
		VoiceGender: "female",
		DurationSec: 15,
		ScriptTone:  "Professional",
		VideoTheme:  "Modern",
		ShopName:    "Acme Fashion",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected non-empty job ID")
	}

	saved, err := repo.FindByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Status != StatusQueued {
		t.Errorf("expected status %s, got %s", StatusQueued, saved.Status)
	}
	if saved.ShopName != "Acme Fashion" {
		t.Errorf("expected shop name, got %q", saved.ShopName)
	}

	if len(q.submitted) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(q.submitted))
	}
	task := q.submitted[0]
	if task.JobID != jobID {
		t.Errorf("task job ID mismatch: %s vs %s", task.JobID, jobID)
	}
	if len(task.ImageURLs) != 2 {
		t.Errorf("expected 2 image URLs, got %d", len(task.ImageURLs))
	}
	if task.DurationSec != 15 {
		t.Errorf("expected duration 15, got %d", task.DurationSec)
	}
}

func TestService_Submit_QueueOffline(t *testing.T) {
	repo := NewMemoryRepository()
	q := &fakeQueue{pingErr: errors.New("connection refused")}
	svc := NewService(repo, q, &fakeUploads{}, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{Title: "x", ShopName: "s"})
	if !errors.Is(err, ErrQueueOffline) {
		t.Fatalf("expected ErrQueueOffline, got %v", err)
	}
	if len(q.submitted) != 0 {
		t.Error("expected no task to be enqueued")
	}
}

func TestService_Submit_EnqueueFailureMarksJobFailed(t *testing.T) {
	repo := NewMemoryRepository()
	q := &fakeQueue{submitErr: errors.New("broken pipe")}
	svc := NewService(repo, q, &fakeUploads{}, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{Title: "x", ShopName: "s"})
	if !errors.Is(err, ErrQueueOffline) {
		t.Fatalf("expected ErrQueueOffline, got %v", err)
	}
}

func TestService_Submit_MalformedImageURLs(t *testing.T) {
	repo := NewMemoryRepository()
	q := &fakeQueue{}
	svc := NewService(repo, q, &fakeUploads{}, nil)

	jobID, err := svc.Submit(context.Background(), SubmitInput{
		ImageURLs: "{not json",
		Title:     "x",
		ShopName:  "s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected non-empty job ID")
	}
	if len(q.submitted[0].ImageURLs) != 0 {
		t.Errorf("expected empty image list, got %v", q.submitted[0].ImageURLs)
	}
}

func TestService_Submit_SavesMusicUpload(t *testing.T) {
	repo := NewMemoryRepository()
	q := &fakeQueue{}
	uploads := &fakeUploads{}
	svc := NewService(repo, q, uploads, nil)

	jobID, err := svc.Submit(context.Background(), SubmitInput{
		Title:    "x",
		ShopName: "s",
		Music:    strings.NewReader("mp3-bytes"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantName := "bgm_" + jobID + ".mp3"
	if uploads.saved[wantName] != "mp3-bytes" {
		t.Errorf("expected upload %q to be saved, got %v", wantName, uploads.saved)
	}
	if q.submitted[0].MusicPath != "/uploads/"+wantName {
		t.Errorf("expected music path on task, got %q", q.submitted[0].MusicPath)
	}
}

func TestService_Status(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeQueue{}, &fakeUploads{}, nil)
	ctx := context.Background()

	_ = repo.Insert(ctx, New("job-1", "shop", "title"))
	_ = repo.UpdateFields(ctx, "job-1", ProgressFields(40))

	view, err := svc.Status(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != StatusProcessing {
		t.Errorf("expected status %s, got %s", StatusProcessing, view.Status)
	}
	if view.Progress != 40 {
		t.Errorf("expected progress 40, got %d", view.Progress)
	}
}

func TestService_Status_NotFound(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeQueue{}, &fakeUploads{}, nil)

	view, err := svc.Status(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != StatusNotFound {
		t.Errorf("expected status %s, got %s", StatusNotFound, view.Status)
	}
}
