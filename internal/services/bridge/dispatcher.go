package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/queue"
	"go.uber.org/zap"
)

const (
	ActionResize = "resize"
	ActionSize   = "size"
)

// Callback receives the outcome of one action. Exactly one of its methods
// is called, once.
type Callback interface {
	Success(payload interface{})
	Error(err error)
}

// Dispatcher routes named actions to the orchestrator. Resizes run on the
// caller's goroutine; size probes run on the probe pool.
type Dispatcher struct {
	orchestrator *Orchestrator
	pool         *queue.WorkerPool
	logger       *zap.Logger
}

func NewDispatcher(orchestrator *Orchestrator, pool *queue.WorkerPool, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		orchestrator: orchestrator,
		pool:         pool,
		logger:       logger,
	}
}

// resizeArgs uses pointers to tell a missing field from a zero value.
type resizeArgs struct {
	URI        *string `json:"uri"`
	FolderName string  `json:"folderName"`
	FileName   string  `json:"fileName"`
	Quality    *int    `json:"quality"`
	Width      *int    `json:"width"`
	Height     *int    `json:"height"`
	Format     string  `json:"format"`
	Publish    bool    `json:"publish"`
}

// Execute runs action with args and reports through cb. For "size" it
// returns once the probe is queued; cb is then called from a pool worker.
func (d *Dispatcher) Execute(ctx context.Context, action string, args []json.RawMessage, cb Callback) {
	switch action {
	case ActionResize:
		d.resize(ctx, args, cb)
	case ActionSize:
		d.size(ctx, args, cb)
	default:
		cb.Error(models.Errorf(models.KindInvalidAction, action, "unknown action %q", action))
	}
}

func (d *Dispatcher) resize(ctx context.Context, args []json.RawMessage, cb Callback) {
	req, err := DecodeResizeArgs(args)
	if err != nil {
		cb.Error(err)
		return
	}

	defer d.recoverTo(cb, ActionResize)

	result, err := d.orchestrator.Resize(ctx, req)
	if err != nil {
		d.logger.Warn("Resize failed",
			zap.String("uri", req.URI),
			zap.String("error_kind", string(models.KindOf(err))),
			zap.Error(err))
		cb.Error(err)
		return
	}
	cb.Success(result.URI)
}

func (d *Dispatcher) size(ctx context.Context, args []json.RawMessage, cb Callback) {
	req, err := DecodeSizeArgs(args)
	if err != nil {
		cb.Error(err)
		return
	}

	taskCtx := context.WithoutCancel(ctx)
	task := func() {
		defer d.recoverTo(cb, ActionSize)

		result, err := d.orchestrator.ProbeSize(taskCtx, req)
		if err != nil {
			cb.Error(err)
			return
		}
		cb.Success(result)
	}

	if err := d.pool.Submit(ctx, task); err != nil {
		cb.Error(models.NewError(models.KindUnavailable, ActionSize, fmt.Errorf("failed to queue size probe: %w", err)))
	}
}

func (d *Dispatcher) recoverTo(cb Callback, action string) {
	if r := recover(); r != nil {
		d.logger.Error("Action panicked",
			zap.String("action", action),
			zap.Any("panic", r))
		cb.Error(models.Errorf(models.KindDecodeFailure, action, "panic: %v", r))
	}
}

// DecodeResizeArgs checks the resize argument bundle: exactly one object
// carrying uri, quality, width and height.
func DecodeResizeArgs(args []json.RawMessage) (models.ResizeRequest, error) {
	if len(args) != 1 {
		return models.ResizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionResize, "expected 1 argument, got %d", len(args))
	}

	var raw resizeArgs
	if err := json.Unmarshal(args[0], &raw); err != nil {
		return models.ResizeRequest{}, models.NewError(models.KindInvalidArguments, ActionResize, err)
	}

	switch {
	case raw.URI == nil:
		return models.ResizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionResize, "uri is required")
	case raw.Quality == nil:
		return models.ResizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionResize, "quality is required")
	case raw.Width == nil:
		return models.ResizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionResize, "width is required")
	case raw.Height == nil:
		return models.ResizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionResize, "height is required")
	}

	return models.ResizeRequest{
		URI:        *raw.URI,
		FolderName: raw.FolderName,
		FileName:   raw.FileName,
		Quality:    *raw.Quality,
		Width:      *raw.Width,
		Height:     *raw.Height,
		Format:     raw.Format,
		Publish:    raw.Publish,
	}, nil
}

// DecodeSizeArgs reads the size request from the first argument.
func DecodeSizeArgs(args []json.RawMessage) (models.SizeRequest, error) {
	if len(args) == 0 {
		return models.SizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionSize, "expected at least 1 argument")
	}

	var req models.SizeRequest
	if err := json.Unmarshal(args[0], &req); err != nil {
		return models.SizeRequest{}, models.NewError(models.KindInvalidArguments, ActionSize, err)
	}
	if req.Data == "" {
		return models.SizeRequest{}, models.Errorf(models.KindInvalidArguments, ActionSize, "data is required")
	}
	return req, nil
}
