package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careerguide/internal/extract"
	"github.com/yoockh/careerguide/internal/services"
	"github.com/yoockh/careerguide/internal/utils"
	"github.com/yoockh/careerguide/internal/workers"
)

// JobQueue hands ingestion to background workers.
type JobQueue interface {
	Enqueue(ctx context.Context, kind extract.Kind, merge bool) (*workers.IngestJob, error)
	Status(ctx context.Context, jobID string) (*workers.IngestJob, error)
}

type IngestHandler struct {
	svc   services.IngestionService
	queue JobQueue
}

func NewIngestHandler(svc services.IngestionService, queue JobQueue) *IngestHandler {
	return &IngestHandler{svc: svc, queue: queue}
}

func (h *IngestHandler) PDF(c *gin.Context) { h.ingest(c, extract.KindPDF) }

func (h *IngestHandler) CSV(c *gin.Context) { h.ingest(c, extract.KindCSV) }

func (h *IngestHandler) ingest(c *gin.Context, kind extract.Kind) {
	const op = "IngestHandler.Ingest"

	async, err := queryBool(c, "async")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "async must be a boolean", err))
		return
	}
	merge, err := queryBool(c, "merge")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "merge must be a boolean", err))
		return
	}

	if async {
		if h.queue == nil {
			writeError(c, utils.E(utils.CodeUnavailable, op, "background ingestion is not configured", nil))
			return
		}
		job, err := h.queue.Enqueue(c.Request.Context(), kind, merge)
		if err != nil {
			writeError(c, err)
			return
		}
		writeData(c, http.StatusAccepted, job)
		return
	}

	run, err := h.svc.Ingest(c.Request.Context(), kind, services.IngestOptions{Merge: merge})
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, run)
}

func (h *IngestHandler) JobStatus(c *gin.Context) {
	const op = "IngestHandler.JobStatus"

	if h.queue == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "background ingestion is not configured", nil))
		return
	}
	job, err := h.queue.Status(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, job)
}

func (h *IngestHandler) Latest(c *gin.Context) {
	ctx := c.Request.Context()

	run, err := h.svc.Latest(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	count, err := h.svc.DocumentCount(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{
		"run":            run,
		"document_count": count,
	})
}

func queryBool(c *gin.Context, key string) (bool, error) {
	s := c.Query(key)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
