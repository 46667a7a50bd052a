package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"tryon/internal/domain"
	"tryon/internal/imaging"
	"tryon/internal/storage"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type submitResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// TryOnSubmit accepts the two input photos, prepares and stores them, and
// enqueues a job. It never talks to the remote service; the response carries
// the job id the client polls with.
func (a *App) TryOnSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.Config.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	personKey, err := a.acceptUpload(r, "person_image", "person")
	if err != nil {
		a.uploadError(w, "person_image", err)
		return
	}
	garmentKey, err := a.acceptUpload(r, "garment_image", "garment")
	if err != nil {
		a.uploadError(w, "garment_image", err)
		return
	}

	job, err := a.Queue.Enqueue(r.Context(), personKey, garmentKey)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}

	a.Logger.Info().Str("job_id", job.ID).Msg("handlers: try-on job accepted")
	a.json(w, http.StatusAccepted, submitResponse{Status: "accepted", JobID: job.ID})
}

// TryOnStatus returns the current lifecycle view for a job.
func (a *App) TryOnStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	view, err := a.Status.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, view)
}

// TryOnResult serves the stored composited image for a completed job.
func (a *App) TryOnResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	assetKey, err := a.Status.ResultAssetKey(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, domain.ErrResultNotReady):
			a.error(w, http.StatusNotFound, "not_found", "result not available")
		default:
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: result lookup failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		}
		return
	}
	data, err := a.Store.Read(r.Context(), assetKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: result read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read result")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// acceptUpload validates, prepares and stores one uploaded image, returning
// its storage key.
func (a *App) acceptUpload(r *http.Request, field, role string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", domain.ErrInvalidInput
	}
	defer file.Close()

	if !allowedExtension(header) {
		return "", domain.ErrInvalidInput
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	prepared, err := imaging.PrepareJPEG(raw)
	if err != nil {
		return "", err
	}
	return a.Store.Write(r.Context(), storage.UploadKey(role), prepared)
}

func (a *App) uploadError(w http.ResponseWriter, field string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", field+" is missing or has a disallowed file type")
	case errors.Is(err, imaging.ErrUnsupportedImage):
		a.error(w, http.StatusBadRequest, "bad_request", field+" could not be decoded as an image")
	default:
		a.Logger.Error().Err(err).Str("field", field).Msg("handlers: upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
	}
}

func allowedExtension(header *multipart.FileHeader) bool {
	if header == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	return allowedExtensions[ext]
}
