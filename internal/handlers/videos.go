package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/blazethunderstorm/screen-recorder/internal/auth"
	"github.com/blazethunderstorm/screen-recorder/internal/library"
	"github.com/blazethunderstorm/screen-recorder/internal/logging"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

const (
	defaultMaxUploadBytes = 500 << 20
	multipartMemory       = 32 << 20
)

// VideoHandler provides endpoints for listing, viewing and managing videos.
type VideoHandler struct {
	Library        VideoLibrary
	Limiter        RateLimiter
	MaxUploadBytes int64
}

// Collection handles /api/v1/videos.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPost:
		h.Create(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// Item handles /api/v1/videos/{id}.
func (h VideoHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Get(w, r)
	case http.MethodPut:
		h.Update(w, r)
	case http.MethodDelete:
		h.Delete(w, r)
	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) {
		return
	}

	params := r.URL.Query()
	limit, err := intParam(params.Get("limit"), library.DefaultPageSize)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
		return
	}
	offset, err := intParam(params.Get("offset"), 0)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "offset must be an integer"})
		return
	}

	page, err := h.Library.List(ctx, auth.PrincipalFromContext(ctx), library.ListQuery{
		TargetUserID: params.Get("userId"),
		Visibility:   params.Get("visibility"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, listResponse{
		Videos: page.Items,
		Pagination: pagination{
			Total:   page.Total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.HasMore,
		},
	})
}

// Get handles GET /api/v1/videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) {
		return
	}

	video, err := h.Library.Get(ctx, auth.PrincipalFromContext(ctx), r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

// Create handles POST /api/v1/videos. JSON bodies reference media that was
// already uploaded; multipart bodies carry the recording itself.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) || !allow(w, r, h.Limiter, "videos.write") {
		return
	}

	principal := auth.PrincipalFromContext(ctx)

	if isMultipart(r) {
		upload, input, cleanup, ok := h.readUpload(w, r)
		if !ok {
			return
		}
		defer cleanup()

		video, err := h.Library.Publish(ctx, principal, upload, input)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusCreated, video)
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid create video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	video, err := h.Library.Create(ctx, principal, library.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		MediaID:      req.VideoID,
		ThumbnailURL: req.ThumbnailURL,
		Visibility:   req.Visibility,
		Duration:     roundSeconds(req.Duration),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video)
}

// Upload handles POST /api/v1/uploads, storing a recording without creating a video.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	ctx := r.Context()
	if !h.ready(w, r) || !allow(w, r, h.Limiter, "uploads") {
		return
	}

	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		respondError(ctx, w, fmt.Errorf("%w: sign in to upload videos", library.ErrUnauthorized))
		return
	}

	upload, _, cleanup, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	asset, err := h.Library.Upload(ctx, principal, upload)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, asset)
}

// Update handles PUT /api/v1/videos/{id}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) || !allow(w, r, h.Limiter, "videos.write") {
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid update video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	changes := models.VideoChanges{Title: req.Title, Description: req.Description}
	if req.Visibility != nil {
		v := models.Visibility(strings.ToLower(strings.TrimSpace(*req.Visibility)))
		changes.Visibility = &v
	}

	video, err := h.Library.Update(ctx, auth.PrincipalFromContext(ctx), r.PathValue("id"), changes)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

// Delete handles DELETE /api/v1/videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) || !allow(w, r, h.Limiter, "videos.write") {
		return
	}

	if err := h.Library.Delete(ctx, auth.PrincipalFromContext(ctx), r.PathValue("id")); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "video deleted successfully"})
}

func (h VideoHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Library == nil {
		logging.FromContext(r.Context()).Error("video library unavailable")
		respondJSON(r.Context(), w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return false
	}
	return true
}

// readUpload parses a multipart recording upload. The returned cleanup must be
// called once the upload body has been consumed.
func (h VideoHandler) readUpload(w http.ResponseWriter, r *http.Request) (models.MediaUpload, library.CreateInput, func(), bool) {
	ctx := r.Context()

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("upload exceeds %d bytes", limit)})
			return models.MediaUpload{}, library.CreateInput{}, nil, false
		}
		logging.FromContext(ctx).Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return models.MediaUpload{}, library.CreateInput{}, nil, false
	}

	removeForm := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		removeForm()
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return models.MediaUpload{}, library.CreateInput{}, nil, false
	}

	var duration *int
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			_ = file.Close()
			removeForm()
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "duration must be a number of seconds"})
			return models.MediaUpload{}, library.CreateInput{}, nil, false
		}
		duration = roundSeconds(&seconds)
	}

	upload := models.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Duration:    duration,
	}
	input := library.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Visibility:  r.FormValue("visibility"),
		Duration:    duration,
	}

	cleanup := func() {
		_ = file.Close()
		removeForm()
	}

	return upload, input, cleanup, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func roundSeconds(seconds *float64) *int {
	if seconds == nil || math.IsNaN(*seconds) || math.IsInf(*seconds, 0) {
		return nil
	}
	rounded := math.Round(*seconds)
	switch {
	case rounded >= math.MaxInt:
		v := math.MaxInt
		return &v
	case rounded <= math.MinInt:
		v := math.MinInt
		return &v
	}
	v := int(rounded)
	return &v
}

type createVideoRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	VideoURL     string   `json:"videoUrl"`
	VideoID      string   `json:"videoId"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Visibility   string   `json:"visibility"`
	Duration     *float64 `json:"duration"`
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}

type pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

type listResponse struct {
	Videos     []models.Video `json:"videos"`
	Pagination pagination     `json:"pagination"`
}
