package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rroosshhaann/whisper-diarization/internal/ingest"
	"github.com/rroosshhaann/whisper-diarization/internal/jobs"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

// JobHandler exposes the asynchronous job API.
type JobHandler struct {
	registry  *jobs.Registry
	store     *ingest.Store
	fetcher   ingest.AudioFetcher
	modelName string
}

// NewJobHandler creates a new JobHandler. modelName is the Whisper model
// the service has loaded; submissions naming a different model are
// rejected up front. fetcher may be nil, which disables URL submission.
func NewJobHandler(registry *jobs.Registry, store *ingest.Store, fetcher ingest.AudioFetcher, modelName string) *JobHandler {
	return &JobHandler{registry: registry, store: store, fetcher: fetcher, modelName: modelName}
}

// Submit accepts a multipart audio upload and enqueues a job.
// POST /jobs
func (h *JobHandler) Submit(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}

	params, err := h.parseParameters(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to open upload"})
	}
	defer src.Close()

	jobID := uuid.New().String()
	audioPath, err := h.store.SaveUpload(jobID, fileHeader.Filename, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return h.enqueue(c, jobID, params, audioPath)
}

// URLRequest is the JSON body for URL submission.
type URLRequest struct {
	URL              string  `json:"url"`
	WhisperModel     string  `json:"whisper_model"`
	Language         string  `json:"language"`
	Stemming         *bool   `json:"stemming"`
	SuppressNumerals bool    `json:"suppress_numerals"`
	BatchSize        *int    `json:"batch_size"`
}

// SubmitURL downloads the audio track of a video URL and enqueues a job.
// POST /jobs/url
func (h *JobHandler) SubmitURL(c echo.Context) error {
	if h.fetcher == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "URL submission is not enabled"})
	}

	var req URLRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	params := h.defaultParameters()
	if req.WhisperModel != "" {
		if req.WhisperModel != h.modelName {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("whisper_model %q is not available, this server serves %q", req.WhisperModel, h.modelName)})
		}
		params.ModelName = req.WhisperModel
	}
	params.Language = req.Language
	if req.Stemming != nil {
		params.Stemming = *req.Stemming
	}
	params.SuppressNumerals = req.SuppressNumerals
	if req.BatchSize != nil {
		if *req.BatchSize < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "batch_size must be a non-negative integer"})
		}
		params.BatchSize = *req.BatchSize
	}

	jobID := uuid.New().String()
	audioPath, err := h.fetcher.FetchAudio(c.Request().Context(), req.URL, jobID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return h.enqueue(c, jobID, params, audioPath)
}

// enqueue creates the job record and reports its queue position.
func (h *JobHandler) enqueue(c echo.Context, jobID string, params models.Parameters, audioPath string) error {
	job := h.registry.Create(models.Job{
		ID:         jobID,
		Parameters: params,
		AudioPath:  audioPath,
	})

	position, err := h.registry.PositionOf(job.ID)
	if err != nil {
		// Claimed by the worker between create and lookup.
		position = 0
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"job_id":   job.ID,
		"status":   job.Status,
		"position": position,
	})
}

// Status reports a job's current state.
// GET /jobs/:id
func (h *JobHandler) Status(c echo.Context) error {
	job, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	}

	response := map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	}

	switch job.Status {
	case models.JobStatusQueued:
		position, err := h.registry.PositionOf(job.ID)
		if err != nil {
			position = 0
		}
		response["position"] = position
	case models.JobStatusProcessing:
		response["progress"] = job.Stage
	case models.JobStatusFailed:
		response["error"] = job.Error
	}

	return c.JSON(http.StatusOK, response)
}

// Result returns the finished document for a completed job.
// GET /jobs/:id/result
func (h *JobHandler) Result(c echo.Context) error {
	job, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	}

	switch job.Status {
	case models.JobStatusQueued:
		return c.JSON(http.StatusAccepted, map[string]string{"detail": "Job is still queued"})
	case models.JobStatusProcessing:
		return c.JSON(http.StatusAccepted, map[string]string{"detail": "Job is still processing"})
	case models.JobStatusFailed:
		return c.JSON(http.StatusInternalServerError, map[string]string{"detail": fmt.Sprintf("Job failed: %s", job.Error)})
	}

	return c.JSON(http.StatusOK, job.Result)
}

// List returns summaries of all jobs in submission order.
// GET /jobs
func (h *JobHandler) List(c echo.Context) error {
	all := h.registry.List()

	summaries := make([]map[string]interface{}, 0, len(all))
	for _, job := range all {
		summary := map[string]interface{}{
			"job_id":     job.ID,
			"status":     job.Status,
			"created_at": job.CreatedAt,
		}
		if job.Stage != "" {
			summary["progress"] = job.Stage
		}
		summaries = append(summaries, summary)
	}

	return c.JSON(http.StatusOK, summaries)
}

// Delete cancels a queued job or removes a terminal one. Jobs that are
// currently processing cannot be deleted.
// DELETE /jobs/:id
func (h *JobHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	job, err := h.registry.Get(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	}

	if job.Status == models.JobStatusProcessing {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Cannot delete job while processing"})
	}

	if job.Status == models.JobStatusQueued {
		err = h.registry.Cancel(id)
	} else {
		err = h.registry.Delete(id)
	}
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
		}
		// Started processing between the status check and the cancel.
		return c.JSON(http.StatusConflict, map[string]string{"error": "Cannot delete job while processing"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Job deleted"})
}

// Health reports service liveness and live queue counts.
// GET /health
func (h *JobHandler) Health(c echo.Context) error {
	counts := h.registry.CountByStatus()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"queued_jobs":     counts[models.JobStatusQueued],
		"processing_jobs": counts[models.JobStatusProcessing],
	})
}

// defaultParameters mirrors the submission form defaults.
func (h *JobHandler) defaultParameters() models.Parameters {
	return models.Parameters{
		ModelName: h.modelName,
		Stemming:  true,
		BatchSize: 8,
	}
}

// parseParameters validates the multipart form fields. Validation
// failures reject the submission before any job record exists.
func (h *JobHandler) parseParameters(c echo.Context) (models.Parameters, error) {
	params := h.defaultParameters()

	if v := c.FormValue("whisper_model"); v != "" {
		if v != h.modelName {
			return params, fmt.Errorf("whisper_model %q is not available, this server serves %q", v, h.modelName)
		}
		params.ModelName = v
	}
	params.Language = c.FormValue("language")

	if v := c.FormValue("stemming"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("stemming must be a boolean")
		}
		params.Stemming = parsed
	}

	if v := c.FormValue("suppress_numerals"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("suppress_numerals must be a boolean")
		}
		params.SuppressNumerals = parsed
	}

	if v := c.FormValue("batch_size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return params, fmt.Errorf("batch_size must be a non-negative integer")
		}
		params.BatchSize = parsed
	}

	return params, nil
}
