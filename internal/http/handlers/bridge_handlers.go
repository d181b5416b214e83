package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/bridge"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/queue"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/storage"
	"go.uber.org/zap"
)

// JobQueue accepts asynchronous resize jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, req models.ResizeRequest) (*models.ResizeJob, error)
	GetQueueStats() (map[string]interface{}, error)
	HealthCheck() string
}

// JobStore reads job status and backing service health.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*models.ResizeJob, error)
	GetJobStats(ctx context.Context) (map[string]interface{}, error)
	HealthCheck(ctx context.Context) map[string]string
}

type BridgeHandler struct {
	dispatcher *bridge.Dispatcher
	pool       *queue.WorkerPool
	queue      JobQueue
	jobs       JobStore
	logger     *zap.Logger
}

// NewBridgeHandler builds the HTTP handlers. jobQueue and jobs may be nil when
// RabbitMQ or Redis are unavailable; the job endpoints then answer 503.
func NewBridgeHandler(
	dispatcher *bridge.Dispatcher,
	pool *queue.WorkerPool,
	jobQueue JobQueue,
	jobs JobStore,
	logger *zap.Logger,
) *BridgeHandler {
	return &BridgeHandler{
		dispatcher: dispatcher,
		pool:       pool,
		queue:      jobQueue,
		jobs:       jobs,
		logger:     logger,
	}
}

// === BRIDGE ===

// Call runs one bridge action and answers with its callback outcome.
func (h *BridgeHandler) Call(c *gin.Context) {
	action := c.Param("action")

	var call models.BridgeCall
	if err := c.ShouldBindJSON(&call); err != nil {
		h.respondError(c, models.NewError(models.KindInvalidArguments, action, err))
		return
	}

	cb := newChannelCallback()
	h.dispatcher.Execute(c.Request.Context(), action, call.Args, cb)

	select {
	case res := <-cb:
		if res.err != nil {
			h.respondError(c, res.err)
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{
			Success: true,
			Data:    res.payload,
		})
	case <-c.Request.Context().Done():
		h.logger.Warn("Client went away before action finished", zap.String("action", action))
		c.AbortWithStatus(http.StatusRequestTimeout)
	}
}

// === JOBS ===

func (h *BridgeHandler) SubmitResizeJob(c *gin.Context) {
	if h.queue == nil || h.jobs == nil {
		h.respondUnavailable(c, "job queue is not configured")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, models.NewError(models.KindInvalidArguments, "submit", err))
		return
	}

	// Same required fields as the resize action.
	req, err := bridge.DecodeResizeArgs([]json.RawMessage{body})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if _, err := bridge.ValidateResize(req); err != nil {
		h.respondError(c, err)
		return
	}

	job, err := h.queue.Enqueue(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to enqueue job", zap.Error(err))
		h.respondUnavailable(c, "failed to enqueue job")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

func (h *BridgeHandler) GetJob(c *gin.Context) {
	if h.jobs == nil {
		h.respondUnavailable(c, "job store is not configured")
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{
				Success: false,
				Error:   "job not found",
			})
			return
		}
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondUnavailable(c, "failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// === STATUS ===

// HealthCheck
func (h *BridgeHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{
		"redis":    "not configured",
		"supabase": "not configured",
		"rabbitmq": "not configured",
	}
	if h.jobs != nil {
		for name, status := range h.jobs.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	}

	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func (h *BridgeHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"probe_pool": h.pool.Stats(),
		"timestamp":  time.Now(),
	}

	if h.queue != nil {
		queueStats, err := h.queue.GetQueueStats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
		} else {
			stats["queue"] = queueStats
		}
	}

	if h.jobs != nil {
		jobStats, err := h.jobs.GetJobStats(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to get job stats", zap.Error(err))
		} else {
			stats["jobs"] = jobStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
