// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ScriptedStep describes the outcome of one scripted invocation.
type ScriptedStep struct {
	// PollsUntilDone is how many polls report StatusInProgress before
	// the step settles. Zero settles on the first poll.
	PollsUntilDone int

	// Result is the settled outcome. Nil (with a nil Err) settles as
	// a bare COMPLETED result.
	Result *Result

	// Err makes the settle report StatusFailed with this error.
	Err error

	// InvokeErr makes Invoke itself fail before issuing a handle.
	InvokeErr error
}

// Fake is a deterministic Executor for tests. Each Invoke consumes
// the next ScriptedStep; running past the script is an error so a
// test that invokes more steps than it scripted fails loudly.
//
// Fake is safe for concurrent use by multiple goroutines.
type Fake struct {
	mutex       sync.Mutex
	script      []ScriptedStep
	invocations []JobContext
	stepOf      map[Handle]int
	polls       map[Handle]int
	interrupted []Handle
	issued      int
}

// NewFake returns a Fake that plays back the given script in order.
func NewFake(script ...ScriptedStep) *Fake {
	return &Fake{
		script: script,
		stepOf: make(map[Handle]int),
		polls:  make(map[Handle]int),
	}
}

// Invoke records the JobContext and issues the next scripted handle.
func (f *Fake) Invoke(ctx context.Context, jobContext JobContext) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()

	index := len(f.invocations)
	f.invocations = append(f.invocations, jobContext)
	if index >= len(f.script) {
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke",
			Err: fmt.Errorf("script exhausted after %d steps", len(f.script))}
	}
	if err := f.script[index].InvokeErr; err != nil {
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke", Err: err}
	}

	f.issued++
	handle := Handle(fmt.Sprintf("fake-%d", f.issued))
	f.stepOf[handle] = index
	return handle, nil
}

// Poll reports StatusInProgress until the scripted poll count is
// consumed, then settles the handle. A settled or unknown handle
// reports StatusFailed, matching the CLI executor.
func (f *Fake) Poll(ctx context.Context, handle Handle) (PollStatus, *Result, error) {
	if err := ctx.Err(); err != nil {
		return StatusInProgress, nil, nil
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()

	index, ok := f.stepOf[handle]
	if !ok {
		return StatusFailed, nil, &ExecutorFailure{Handle: handle, Op: "poll",
			Err: errors.New("unknown invocation handle")}
	}
	step := f.script[index]
	if f.polls[handle] < step.PollsUntilDone {
		f.polls[handle]++
		return StatusInProgress, nil, nil
	}

	delete(f.stepOf, handle)
	delete(f.polls, handle)
	if step.Err != nil {
		return StatusFailed, nil, &ExecutorFailure{Handle: handle, Op: "result", Err: step.Err}
	}
	result := step.Result
	if result == nil {
		result = &Result{Action: ActionCompleted}
	}
	clone := *result
	clone.Normalize()
	return StatusDone, &clone, nil
}

// Interrupt records the handle and retires it so the next poll fails.
func (f *Fake) Interrupt(handle Handle) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.interrupted = append(f.interrupted, handle)
	delete(f.stepOf, handle)
	delete(f.polls, handle)
	return nil
}

// Invocations returns the recorded JobContexts in invocation order.
func (f *Fake) Invocations() []JobContext {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]JobContext, len(f.invocations))
	copy(out, f.invocations)
	return out
}

// Interrupted returns the handles Interrupt was called with.
func (f *Fake) Interrupted() []Handle {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]Handle, len(f.interrupted))
	copy(out, f.interrupted)
	return out
}
