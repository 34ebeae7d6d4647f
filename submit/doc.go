// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package submit coordinates multi-lane command submission to a GPU queue.
//
// A Coordinator splits one frame's work into lanes. Each lane records its
// own command buffers on a shared worker pool and submits them with a
// dedicated fence and semaphore. A single barrier submission then waits on
// every lane semaphore, and Submit returns only after every lane fence and
// the barrier fence were observed.
//
// # Device Access
//
// The coordinator never creates a device. The host passes a Device
// implementation together with the queue and command pool handles in a
// read-only Handle:
//
//	h := submit.NewHandle(device, queue, pool)
//	c := submit.NewCoordinator(h, submit.WithFenceTimeout(500*time.Millisecond))
//	defer c.Close()
//
//	err := c.Submit(4, func(lane int) ([]submit.CommandBuffer, error) {
//	    return recordLane(lane)
//	})
//
// Handles (queue, pool, buffers, fences, semaphores) are opaque to this
// package. The backend/wgpu package provides a Device over gogpu/wgpu HAL.
//
// # Submission Sequence
//
//	ResetPool ─► acquire fence+semaphore per lane
//	          ─► lanes in parallel: gen(i) ─► Submit(buffers, signal sem_i, fence_i)
//	          ─► barrier Submit(no buffers, wait sem_0..sem_n, fence_b)
//	          ─► WaitFence(fence_0..fence_n), WaitFence(fence_b)
//
// Failures do not short-circuit the sequence: a failing generator still
// submits an empty lane, and every dispatched fence is waited even after a
// timeout. The first failure is returned as a *SubmissionError.
//
// # Command Pool Reuse
//
// Submit resets the shared command pool before any lane records. Calls on
// one Coordinator are serialized, so a reset never races with buffers of a
// previous call from the same Coordinator. Sharing one pool between several
// Coordinators, or recording into it outside Submit, is not detected.
package submit
