// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Package errors.
var (
	// ErrFenceTimeout is returned when a fence was not signalled within the
	// coordinator's fence timeout.
	ErrFenceTimeout = errors.New("submit: fence wait timed out")

	// ErrDeviceOperationFailed wraps an error reported by the Device.
	ErrDeviceOperationFailed = errors.New("submit: device operation failed")

	// ErrGeneratorFailed wraps an error returned (or a panic raised) by a
	// lane generator.
	ErrGeneratorFailed = errors.New("submit: lane generator failed")

	// ErrCoordinatorClosed is returned by Submit after Close.
	ErrCoordinatorClosed = errors.New("submit: coordinator closed")

	// ErrNilGenerator is returned by Submit when gen is nil.
	ErrNilGenerator = errors.New("submit: nil generator")

	// ErrNoDevice is returned by Submit when the handle has no device.
	ErrNoDevice = errors.New("submit: handle has no device")
)

// NoLane is the Lane value of failures not tied to a single lane.
const NoLane = -1

// Op names the step of a submission that failed.
type Op string

// Submission steps.
const (
	OpResetPool   Op = "reset pool"
	OpAcquireSync Op = "acquire sync objects"
	OpGenerate    Op = "generate"
	OpSubmit      Op = "submit lane"
	OpBarrier     Op = "submit barrier"
	OpWaitLane    Op = "wait lane fence"
	OpWaitBarrier Op = "wait barrier fence"
)

// Failure is one recorded problem of a submission.
type Failure struct {
	Lane int
	Op   Op
	Err  error
}

func (f Failure) String() string {
	if f.Lane == NoLane {
		return fmt.Sprintf("%s: %v", f.Op, f.Err)
	}
	return fmt.Sprintf("lane %d: %s: %v", f.Lane, f.Op, f.Err)
}

// SubmissionError reports the failures of one Submit call.
//
// Lane, Op and Err describe the first failure; All lists every failure in
// the order lanes, barrier, lane waits, barrier wait. errors.Is and
// errors.As see Err.
type SubmissionError struct {
	// Submission is the correlation id also attached to log records.
	Submission uuid.UUID

	Lane int
	Op   Op
	Err  error

	All []Failure
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	var b strings.Builder
	b.WriteString("submit: submission ")
	b.WriteString(e.Submission.String())
	b.WriteString(": ")
	b.WriteString(Failure{Lane: e.Lane, Op: e.Op, Err: e.Err}.String())
	if n := len(e.All) - 1; n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	return b.String()
}

// Unwrap returns the first failure's error.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// newSubmissionError returns nil if failures is empty.
func newSubmissionError(id uuid.UUID, failures []Failure) error {
	if len(failures) == 0 {
		return nil
	}
	first := failures[0]
	return &SubmissionError{
		Submission: id,
		Lane:       first.Lane,
		Op:         first.Op,
		Err:        first.Err,
		All:        failures,
	}
}

func deviceError(err error) error {
	return fmt.Errorf("%w: %w", ErrDeviceOperationFailed, err)
}
