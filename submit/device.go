// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

import "time"

// Opaque device handles. The coordinator only stores and passes them back
// to the Device that created them.
type (
	// Queue is a device queue accepting submissions.
	Queue interface{}

	// CommandPool is the allocator backing all command buffers of a Handle.
	CommandPool interface{}

	// CommandBuffer is a recorded, ready-to-submit command buffer.
	CommandBuffer interface{}

	// Fence is a host-visible completion signal for one submission.
	Fence interface{}

	// Semaphore is a GPU-side signal ordering one submission after another.
	Semaphore interface{}
)

// PipelineStage identifies the pipeline stage at which a submission waits
// on a semaphore.
type PipelineStage uint32

// Pipeline stages.
const (
	StageTopOfPipe PipelineStage = 1 << iota
	StageTransfer
	StageCompute
	StageFragment
	StageBottomOfPipe

	// StageAllCommands blocks every stage until the semaphore signals.
	StageAllCommands PipelineStage = 1<<16 - 1
)

// String returns the stage name.
func (s PipelineStage) String() string {
	switch s {
	case StageTopOfPipe:
		return "top-of-pipe"
	case StageTransfer:
		return "transfer"
	case StageCompute:
		return "compute"
	case StageFragment:
		return "fragment"
	case StageBottomOfPipe:
		return "bottom-of-pipe"
	case StageAllCommands:
		return "all-commands"
	default:
		return "stage-mask"
	}
}

// Batch is the payload of one queue submission.
//
// WaitStages is parallel to WaitSemaphores. SignalSemaphores are signalled
// once every command buffer in the batch completed.
type Batch struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	SignalSemaphores []Semaphore
}

// Device is the subset of a GPU device the coordinator needs.
//
// Implementations must allow concurrent Submit calls on the same queue from
// multiple goroutines. All other methods are called from one goroutine at a
// time per Coordinator.
type Device interface {
	// CreateFence creates an unsignalled fence.
	CreateFence() (Fence, error)

	// CreateSemaphore creates an unsignalled semaphore.
	CreateSemaphore() (Semaphore, error)

	// ResetFence returns a signalled fence to the unsignalled state.
	ResetFence(fence Fence) error

	// DestroyFence releases a fence that is not in use by the device.
	DestroyFence(fence Fence)

	// DestroySemaphore releases a semaphore that is not in use by the device.
	DestroySemaphore(sem Semaphore)

	// ResetPool recycles every command buffer allocated from pool.
	ResetPool(pool CommandPool) error

	// Submit enqueues batch on queue. fence, if non-nil, is signalled when
	// the whole batch completed.
	Submit(queue Queue, batch Batch, fence Fence) error

	// WaitFence blocks until fence is signalled or timeout elapses.
	// It returns false on timeout.
	WaitFence(fence Fence, timeout time.Duration) (bool, error)
}

// Handle bundles the device, queue and command pool shared by every lane.
// It is immutable after NewHandle.
type Handle struct {
	device Device
	queue  Queue
	pool   CommandPool
}

// NewHandle creates a read-only handle over the host's device objects.
func NewHandle(device Device, queue Queue, pool CommandPool) *Handle {
	return &Handle{device: device, queue: queue, pool: pool}
}

// Device returns the device.
func (h *Handle) Device() Device { return h.device }

// Queue returns the submission queue.
func (h *Handle) Queue() Queue { return h.queue }

// CommandPool returns the shared command pool.
func (h *Handle) CommandPool() CommandPool { return h.pool }
