// Package broker issues direct-to-storage upload slots for receipt images and
// hosts the legacy server-side multipart upload.
package broker

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dvloznov/receipts-web/internal/api/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults applied by NewHandler to zero Options fields.
const (
	DefaultURLExpiry      = time.Hour
	DefaultKeyPrefix      = "receipts"
	DefaultMaxUploadBytes = 20 << 20
)

// Options configure a Handler.
type Options struct {
	KeyPrefix      string
	URLExpiry      time.Duration
	MaxUploadBytes int64
}

// SlotRequest is the body of POST /api/upload-url.
type SlotRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// Slot is a presigned upload slot.
type Slot struct {
	ImageID   string    `json:"imageId"`
	ObjectKey string    `json:"objectKey"`
	UploadURL string    `json:"uploadUrl"`
	ReadURL   string    `json:"readUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LegacyUpload is the response of the multipart upload endpoint.
type LegacyUpload struct {
	URL       string `json:"url"`
	ObjectURL string `json:"objectUrl"`
	Key       string `json:"key"`
}

// Handler serves the broker endpoints.
type Handler struct {
	store Storage
	opts  Options
	log   zerolog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewHandler creates a broker handler. A nil store makes every endpoint answer 503.
func NewHandler(store Storage, opts Options, log zerolog.Logger) *Handler {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = DefaultURLExpiry
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		store: store,
		opts:  opts,
		log:   log,
		now:   time.Now,
		newID: uuid.New,
	}
}

// CreateUploadURL handles POST /api/upload-url
func (h *Handler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req SlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !IsImage(req.ContentType) {
		middleware.WriteError(w, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}
	if req.SizeBytes < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "sizeBytes must not be negative")
		return
	}
	if req.SizeBytes > h.opts.MaxUploadBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, ErrNoCredentials.Error())
		return
	}

	id := h.newID()
	now := h.now()
	key := ObjectKey(h.opts.KeyPrefix, req.FileName, req.ContentType, now, id)
	expires := now.Add(h.opts.URLExpiry)

	uploadURL, err := h.store.SignedPutURL(key, req.ContentType, expires)
	if err != nil {
		h.log.Error().Err(err).Str("object_key", key).Msg("Failed to sign upload URL")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create upload URL")
		return
	}
	readURL, err := h.store.SignedGetURL(key, expires)
	if err != nil {
		h.log.Error().Err(err).Str("object_key", key).Msg("Failed to sign read URL")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create upload URL")
		return
	}

	h.log.Info().
		Str("image_id", id.String()).
		Str("object_key", key).
		Int64("size_bytes", req.SizeBytes).
		Msg("Upload URL issued")

	middleware.WriteJSON(w, http.StatusOK, Slot{
		ImageID:   id.String(),
		ObjectKey: key,
		UploadURL: uploadURL,
		ReadURL:   readURL,
		ExpiresAt: expires.UTC(),
	})
}

// Upload handles POST /api/upload
// The file is written to storage by the server.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, ErrNoCredentials.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := partContentType(header.Header.Get("Content-Type"), header.Filename)
	if !IsImage(contentType) {
		middleware.WriteError(w, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}

	key := ObjectKey(h.opts.KeyPrefix, header.Filename, contentType, h.now(), h.newID())
	written, err := h.store.Write(r.Context(), key, contentType, file)
	if err != nil {
		h.log.Error().Err(err).Str("object_key", key).Msg("Failed to write upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	readURL, err := h.store.SignedGetURL(key, h.now().Add(h.opts.URLExpiry))
	if err != nil {
		h.log.Error().Err(err).Str("object_key", key).Msg("Failed to sign read URL")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	h.log.Info().
		Str("object_key", key).
		Int64("bytes", written).
		Msg("File uploaded successfully")

	middleware.WriteJSON(w, http.StatusOK, LegacyUpload{
		URL:       readURL,
		ObjectURL: h.store.ObjectURL(key),
		Key:       key,
	})
}

// ImageURL handles GET /api/images/{key}/url
func (h *Handler) ImageURL(w http.ResponseWriter, r *http.Request, key string) {
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, ErrNoCredentials.Error())
		return
	}

	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") || !strings.HasPrefix(key, strings.Trim(h.opts.KeyPrefix, "/")+"/") {
		middleware.WriteError(w, http.StatusNotFound, "Image not found")
		return
	}

	u, err := h.store.SignedGetURL(key, h.now().Add(h.opts.URLExpiry))
	if err != nil {
		h.log.Error().Err(err).Str("object_key", key).Msg("Failed to sign read URL")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create image URL")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"url": u})
}

// partContentType falls back to the file extension when the part carries no
// useful content type.
func partContentType(declared, fileName string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); byExt != "" {
		return byExt
	}
	return declared
}
