package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelier-dev/storefrontbackend/media"
	"github.com/atelier-dev/storefrontbackend/repository"
	"github.com/atelier-dev/storefrontbackend/workers"
)

// multipart form overhead allowed on top of the image payload itself
const uploadFormSlack = 1 << 20

// MediaHandler owns the upload endpoint and the media record surface the
// back office reads.
type MediaHandler struct {
	Repo           *repository.MediaRepository
	Builder        *media.Builder
	MaxUploadBytes int64
}

// UploadImage accepts a single image file, validates it against the
// allow-list and size limit, builds the full derivative set, and persists
// the media record. The request blocks until the set is complete; a
// failure anywhere means no record is created.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+uploadFormSlack)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "missing_file", "expected a multipart 'image' field")
		return
	}
	defer file.Close()

	// size first, so an oversized upload is named as such rather than
	// failing the type check on a truncated read
	if header.Size > h.MaxUploadBytes {
		writeAPIError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("file is %d bytes, limit is %d", header.Size, h.MaxUploadBytes))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "unreadable_upload", "failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !media.IsAllowedMime(mimeType) {
		// browsers sometimes omit or generalise the part type; sniff before
		// rejecting
		mimeType = http.DetectContentType(data)
	}
	if !media.IsAllowedMime(mimeType) {
		writeAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type",
			fmt.Sprintf("'%s' is not an allowed image type (JPEG, PNG, WebP)", mimeType))
		return
	}

	// callers are responsible for filename uniqueness; a random base name
	// makes collisions across concurrent uploads structurally impossible
	filename := uuid.New().String() + media.ExtensionForMime(mimeType)

	set, err := h.Builder.Build(r.Context(), data, filename, mimeType)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			writeAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
			return
		}
		log.Printf("Error building derivative set for upload '%s': %v", header.Filename, err)
		writeAPIError(w, http.StatusUnprocessableEntity, "processing_failed",
			"the image could not be decoded or processed")
		return
	}

	record := workers.NewMediaRecord(filename, mimeType, data, set)
	if err := h.Repo.Create(record); err != nil {
		log.Printf("Error creating media record for %s: %v", filename, err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to persist media record")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// ListMedia retrieves all media records, newest first
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	records, err := h.Repo.List()
	if err != nil {
		log.Printf("Error listing media records: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to retrieve media records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetMedia retrieves a single media record by id
func (h *MediaHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := mediaIDParam(w, r)
	if !ok {
		return
	}

	record, err := h.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "media record not found")
		} else {
			log.Printf("Error getting media record %d: %v", id, err)
			writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to retrieve media record")
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DeleteMedia removes a record and its derivative files. File deletion is
// best-effort; a tier that is already gone does not block record removal.
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := mediaIDParam(w, r)
	if !ok {
		return
	}

	record, err := h.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "media record not found")
		} else {
			log.Printf("Error getting media record %d for delete: %v", id, err)
			writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to retrieve media record")
		}
		return
	}

	store := h.Builder.Store()
	for _, tier := range media.AllTiers {
		if err := store.Delete(r.Context(), media.StoragePath(record.Filename, tier)); err != nil {
			log.Printf("Error deleting %s tier for media record %d: %v", tier, id, err)
		}
	}

	if err := h.Repo.Delete(id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Error deleting media record %d: %v", id, err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to delete media record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func mediaIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := chi.URLParam(r, "media_id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_id", "media id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
