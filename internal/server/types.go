// Package server provides the HTTP surface for the adreel API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// SubmitRequest is the multipart form payload for starting a video generation.
// image_urls is a JSON-serialized array; a malformed value degrades to an
// empty image set rather than rejecting the submission.
type SubmitRequest struct {
	ImageURLs    string `validate:"required"`
	ProductTitle string `validate:"required"`
	ProductDesc  string `validate:"required"`
	LogoURL      string `validate:"omitempty,url"`
	VoiceGender  string `validate:"oneof=female male"`
	Duration     int    `validate:"min=5,max=120"`
	ScriptTone   string `validate:"required"`
	VideoTheme   string `validate:"required"`
	ShopName     string `validate:"required"`
}

// SubmitResponse is returned by the submit endpoint. Status is "queued" on
// success and "failed" when the submission could not be accepted.
type SubmitResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// StatusResponse is the poller payload. URL and Error are pointers so
// absent values serialize as null rather than being omitted.
type StatusResponse struct {
	Status   string  `json:"status"`
	Progress int     `json:"progress"`
	URL      *string `json:"url"`
	Error    *string `json:"error"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
