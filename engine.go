// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gogpu/frameflow/assets"
	"github.com/gogpu/frameflow/internal/logging"
	"github.com/gogpu/frameflow/scheduler"
	"github.com/gogpu/frameflow/submit"
)

// Engine owns a scheduler, a submission coordinator and an asset loader
// sharing one device handle.
//
// Thread safety: Engine is safe for concurrent use. SubmitFrame calls are
// serialized.
type Engine struct {
	sched  *scheduler.Scheduler
	coord  *submit.Coordinator
	loader *assets.Loader
	log    *slog.Logger

	closeOnce sync.Once
}

// NewEngine creates an engine submitting through h.
// The engine starts its scheduler workers immediately.
func NewEngine(h *submit.Handle, opts ...Option) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.Or(o.logger)

	sched := scheduler.New(
		scheduler.WithWorkers(o.workers),
		scheduler.WithLogger(log),
	)
	coord := submit.NewCoordinator(h,
		submit.WithLaneWorkers(o.laneWorkers),
		submit.WithFenceTimeout(o.fenceTimeout),
		submit.WithLaneReuse(o.laneReuse),
		submit.WithLogger(log),
	)
	loaderOpts := []assets.Option{
		assets.WithCapacity(o.assetCapacity),
		assets.WithLogger(log),
	}
	if o.shaderDevice != nil {
		loaderOpts = append(loaderOpts, assets.WithShaderDevice(o.shaderDevice))
	}

	log.Info("frameflow: engine started",
		"workers", sched.Workers(), "lane_reuse", o.laneReuse)

	return &Engine{
		sched:  sched,
		coord:  coord,
		loader: assets.NewLoader(sched, loaderOpts...),
		log:    log,
	}
}

// Enqueue registers a background task. See scheduler.Scheduler.Enqueue.
func (e *Engine) Enqueue(action scheduler.Action, priority int, deps ...scheduler.TaskID) (scheduler.TaskID, error) {
	return e.sched.Enqueue(action, priority, deps...)
}

// Cancel cancels a queued task. See scheduler.Scheduler.Cancel.
func (e *Engine) Cancel(id scheduler.TaskID) bool {
	return e.sched.Cancel(id)
}

// Progress reports finished and accepted task counts.
func (e *Engine) Progress() (completed, total int) {
	return e.sched.Progress()
}

// Status returns the status of a task.
func (e *Engine) Status(id scheduler.TaskID) (scheduler.Status, bool) {
	return e.sched.Status(id)
}

// Wait blocks until every listed task is terminal or ctx is done.
func (e *Engine) Wait(ctx context.Context, ids ...scheduler.TaskID) error {
	return e.sched.Wait(ctx, ids...)
}

// Forget drops the records of terminal tasks. See scheduler.Scheduler.Forget.
func (e *Engine) Forget(ids ...scheduler.TaskID) int {
	return e.sched.Forget(ids...)
}

// SubmitFrame records laneCount lanes with gen and submits them joined by a
// barrier. See submit.Coordinator.Submit.
func (e *Engine) SubmitFrame(laneCount int, gen submit.Generator, opts ...submit.SubmitOption) error {
	return e.coord.Submit(laneCount, gen, opts...)
}

// Assets returns the engine's asset loader.
func (e *Engine) Assets() *assets.Loader { return e.loader }

// Scheduler returns the underlying scheduler.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }

// Coordinator returns the underlying submission coordinator.
func (e *Engine) Coordinator() *submit.Coordinator { return e.coord }

// Close drains the scheduler, closes the coordinator and empties the asset
// store, destroying shader modules created with WithShaderDevice.
// Tasks that are ready or become ready still run. The device handle is not
// closed. Close is safe to call multiple times.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.sched.Shutdown()
		e.coord.Close()
		e.loader.Store().Clear()
		completed, total := e.sched.Progress()
		e.log.Info("frameflow: engine closed", "completed", completed, "total", total)
	})
}
