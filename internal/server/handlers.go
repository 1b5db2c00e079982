package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/adreel/adreel-api/internal/job"
)

// maxSubmitFormMemory bounds in-memory buffering of the multipart submit form.
const maxSubmitFormMemory = 32 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.Service
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// StartGeneration handles POST /api/start-video-generation requests.
// The producer path is synchronous only for the quick store/queue writes;
// the response returns as soon as the task is enqueued.
func (h *Handlers) StartGeneration(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxSubmitFormMemory); err != nil {
		h.logger.Warn("failed to parse submit form",
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Status: "failed", Error: "invalid form payload"})
		return
	}

	req := SubmitRequest{
		ImageURLs:    r.FormValue("image_urls"),
		ProductTitle: r.FormValue("product_title"),
		ProductDesc:  r.FormValue("product_desc"),
		LogoURL:      r.FormValue("logo_url"),
		VoiceGender:  formValueOr(r, "voice_gender", "female"),
		Duration:     formIntOr(r, "duration", 15),
		ScriptTone:   formValueOr(r, "script_tone", "Professional"),
		VideoTheme:   formValueOr(r, "video_theme", "Modern"),
		ShopName:     r.FormValue("shop_name"),
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("submit validation failed",
			slog.String("shop_name", req.ShopName),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Status: "failed", Error: err.Error()})
		return
	}

	input := job.SubmitInput{
		ImageURLs:   req.ImageURLs,
		Title:       req.ProductTitle,
		Description: req.ProductDesc,
		LogoURL:     req.LogoURL,
		VoiceGender: req.VoiceGender,
		DurationSec: req.Duration,
		ScriptTone:  req.ScriptTone,
		VideoTheme:  req.VideoTheme,
		ShopName:    req.ShopName,
	}

	if file, _, err := r.FormFile("music_file"); err == nil {
		defer func() { _ = file.Close() }()
		input.Music = file
	}

	jobID, err := h.service.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, job.ErrQueueOffline) {
			writeJSON(w, http.StatusServiceUnavailable, SubmitResponse{Status: "failed", Error: "queue offline"})
			return
		}
		h.logger.Error("submit failed",
			slog.String("shop_name", req.ShopName),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Status: "failed", Error: "could not accept job"})
		return
	}

	writeJSON(w, http.StatusOK, SubmitResponse{Status: "queued", JobID: jobID})
}

// CheckStatus handles GET /api/check-status/{job_id} requests.
// It performs a single point lookup and never mutates state, so clients
// may poll it as often as they like. Unknown IDs report not_found.
func (h *Handlers) CheckStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Status: "failed", Error: "job ID is required"})
		return
	}

	view, err := h.service.Status(r.Context(), jobID)
	if err != nil {
		h.logger.Error("status lookup failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Status: "failed", Error: "status lookup failed"})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:   string(view.Status),
		Progress: view.Progress,
		URL:      nullable(view.URL),
		Error:    nullable(view.Error),
	})
}

// formValueOr returns the form value or a default when the field is empty.
func formValueOr(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}

// formIntOr parses an integer form value, falling back on the default.
func formIntOr(r *http.Request, key string, def int) int {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// nullable maps an empty string to a JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
