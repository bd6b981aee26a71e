// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/retailnext/imghostuploader/config"
	"github.com/retailnext/imghostuploader/creds"
	"github.com/retailnext/imghostuploader/history"
	"github.com/retailnext/imghostuploader/metrics"
	"github.com/retailnext/imghostuploader/pathcheck"
	"github.com/retailnext/imghostuploader/service"
	"github.com/retailnext/imghostuploader/thumbnail"
	"github.com/retailnext/imghostuploader/unixtime"
	"go.uber.org/zap"
)

// Dispatcher turns validated files into upload tasks and drives them to
// settlement against one backend, bounded by that backend's concurrency
// ceiling. Configuration is captured once per batch at submission.
type Dispatcher struct {
	registry  *service.Registry
	creds     creds.Provider
	validator *pathcheck.Validator
	thumbs    *thumbnail.Cache
	generate  thumbnail.Generator
	holder    *config.Holder
	sink      history.Sink
}

type Options struct {
	Registry    *service.Registry
	Credentials creds.Provider
	Validator   *pathcheck.Validator
	// Thumbnails may be nil, in which case tasks are dispatched without
	// preview payloads.
	Thumbnails *thumbnail.Cache
	Generate   thumbnail.Generator
	Config     *config.Holder
	// Sink may be nil; settled records are then kept only on the Handle.
	Sink history.Sink
}

func New(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil || opts.Credentials == nil || opts.Validator == nil || opts.Config == nil {
		return nil, fmt.Errorf("dispatch: registry, credentials, validator, and config are required")
	}
	sink := opts.Sink
	if sink == nil {
		sink = history.NopSink{}
	}
	return &Dispatcher{
		registry:  opts.Registry,
		creds:     opts.Credentials,
		validator: opts.Validator,
		thumbs:    opts.Thumbnails,
		generate:  opts.Generate,
		holder:    opts.Config,
		sink:      sink,
	}, nil
}

// Batch is one submission: groups of raw paths bound for a single backend.
// Group order and path order within a group fix the admission order.
type Batch struct {
	Service string
	Groups  []pathcheck.Group
}

// Submit validates, schedules, and runs the batch asynchronously. The
// returned Handle reports per-task events and the final record set.
func (d *Dispatcher) Submit(ctx context.Context, batch Batch) (*Handle, error) {
	adapter, ok := d.registry.Lookup(batch.Service)
	if !ok {
		return nil, fmt.Errorf("dispatch: unknown service %q", batch.Service)
	}
	snap := d.holder.Current()
	batchCtx, cancel := context.WithCancel(ctx)
	pub := newPublisher(snap.Events.BufferSize, snap.Events.BlockTimeout.Value())
	h := newHandle(pub.ch, cancel)
	go d.run(batchCtx, snap, adapter, batch, pub, h)
	return h, nil
}

func (d *Dispatcher) run(ctx context.Context, snap *config.Snapshot, adapter service.Adapter, batch Batch, pub *publisher, h *Handle) {
	defer h.settle()
	defer pub.close()
	lgr := zap.S()

	var tasks []*Task
	for _, group := range batch.Groups {
		accepted := 0
		for _, raw := range group.Paths {
			file, err := d.validator.Validate(raw)
			if err != nil {
				d.settleRejected(h, raw, batch.Service, err)
				continue
			}
			task := newTask(file, batch.Service, group.Name, accepted == 0)
			accepted++
			tasks = append(tasks, task)
			d.transition(task, StatePending, pub)
		}
	}
	if len(tasks) == 0 {
		return
	}

	d.createGalleries(ctx, snap, adapter, tasks)

	gates := map[string]*gate{}
	chunkSize := snap.ReclaimThreshold
	if chunkSize < 1 {
		chunkSize = len(tasks)
	}
	for start := 0; start < len(tasks); start += chunkSize {
		end := start + chunkSize
		if end > len(tasks) {
			end = len(tasks)
		}
		d.runChunk(ctx, snap, adapter, tasks[start:end], gates, pub, h)
		if end < len(tasks) {
			// Thumbnail payloads from the settled sub-batch are
			// unreachable now; reclaim before admitting more work.
			runtime.GC()
		}
	}
	lgr.Infow("batch_settled",
		"service", batch.Service,
		"tasks", len(tasks),
	)
}

// runChunk admits tasks in submission order, one queue per backend, and
// waits for every task in the chunk to settle.
func (d *Dispatcher) runChunk(ctx context.Context, snap *config.Snapshot, adapter service.Adapter, tasks []*Task, gates map[string]*gate, pub *publisher, h *Handle) {
	queues := make(map[string][]*Task)
	var order []string
	for _, task := range tasks {
		if _, ok := queues[task.Service]; !ok {
			order = append(order, task.Service)
			if _, ok := gates[task.Service]; !ok {
				gates[task.Service] = newGate(task.Service, snap.BackendConcurrency(task.Service))
			}
		}
		queues[task.Service] = append(queues[task.Service], task)
	}

	var wg sync.WaitGroup
	for _, svc := range order {
		wg.Add(1)
		go func(g *gate, queue []*Task) {
			defer wg.Done()
			var taskWG sync.WaitGroup
			for _, task := range queue {
				if ctx.Err() != nil {
					d.settleTask(task, pub, h, settleCanceled(task, ctx.Err()))
					continue
				}
				d.transition(task, StateQueued, pub)
				if err := g.acquire(ctx); err != nil {
					d.settleTask(task, pub, h, settleCanceled(task, err))
					continue
				}
				taskWG.Add(1)
				go func(task *Task) {
					defer taskWG.Done()
					defer g.release()
					d.runTask(ctx, snap, adapter, task, pub, h)
				}(task)
			}
			taskWG.Wait()
		}(gates[svc], queues[svc])
	}
	wg.Wait()
}

type settleFn func()

func settleCanceled(task *Task, err error) settleFn {
	return func() { task.cancel(err) }
}

// runTask drives one task through its attempt loop while holding the
// backend permit. Any panic out of adapter code settles the task failed
// instead of killing the batch.
func (d *Dispatcher) runTask(ctx context.Context, snap *config.Snapshot, adapter service.Adapter, task *Task, pub *publisher, h *Handle) {
	lgr := zap.S()
	task.startedAt = time.Now()
	settled := false
	defer func() {
		if r := recover(); r != nil {
			lgr.Errorw("upload_panic",
				"path", task.File.Name(),
				"service", task.Service,
				"panic", r,
			)
			task.fail(fmt.Errorf("internal error: %v", r))
			settled = true
		}
		if !settled {
			task.fail(fmt.Errorf("internal error: task left unsettled"))
		}
		d.settleTask(task, pub, h, nil)
	}()

	thumb, thumbErr := d.makeThumbnail(ctx, task)
	if thumbErr != nil {
		lgr.Warnw("thumbnail_unavailable",
			"path", task.File.Name(),
			"err", thumbErr,
		)
		if snap.Cache.Required {
			if ctx.Err() != nil {
				task.cancel(thumbErr)
			} else {
				task.fail(thumbErr)
			}
			settled = true
			return
		}
	}
	task.thumb = thumb

	policy := newBackoffPolicy(snap.Retry)
	for {
		if ctx.Err() != nil {
			task.cancel(ctx.Err())
			settled = true
			return
		}
		task.attempts++
		d.transition(task, StateInFlight, pub)

		credentials, err := d.creds.Lookup(task.Service)
		if err != nil {
			task.fail(&service.Error{Kind: service.Auth, Err: err})
			settled = true
			return
		}

		result, upErr := d.attempt(ctx, snap, adapter, task, credentials, pub)
		if upErr == nil {
			task.succeed(result)
			settled = true
			return
		}
		if ctx.Err() != nil {
			task.cancel(upErr)
			settled = true
			return
		}
		if !service.Retryable(upErr) || task.attempts >= snap.Retry.MaxAttempts {
			task.fail(upErr)
			settled = true
			return
		}

		metrics.Dispatch.Retries.Inc()
		task.lastErr = upErr
		d.transition(task, StateRetrying, pub)
		delay := policy.delay(task.attempts, service.IsRateLimited(upErr))
		lgr.Infow("upload_retry_wait",
			"path", task.File.Name(),
			"service", task.Service,
			"attempt", task.attempts,
			"delay", delay,
			"err", upErr,
		)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			task.cancel(ctx.Err())
			settled = true
			return
		case <-t.C:
		}
		d.transition(task, StateQueued, pub)
	}
}

// attempt runs a single upload try under the per-attempt timeout. A timeout
// classifies as transient so the retry policy applies.
func (d *Dispatcher) attempt(ctx context.Context, snap *config.Snapshot, adapter service.Adapter, task *Task, credentials creds.Credentials, pub *publisher) (*service.UploadResult, error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if timeout := snap.Retry.AttemptTimeout.Value(); timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req := service.UploadRequest{
		File:        task.File,
		GalleryID:   task.GalleryID,
		Cover:       task.Cover,
		Credentials: credentials,
		Progress: func(sent, total int64) {
			pub.publish(Event{
				Type:       EventProgress,
				TaskID:     task.ID,
				Path:       task.File.Name(),
				Service:    task.Service,
				State:      StateInFlight,
				Attempt:    task.attempts,
				BytesSent:  sent,
				BytesTotal: total,
			})
		},
	}
	if task.thumb != nil {
		req.Thumbnail = task.thumb.Data
	}
	result, err := adapter.Upload(attemptCtx, req)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, &service.Error{Kind: service.Transient, Err: fmt.Errorf("attempt timed out: %w", err)}
	}
	return result, err
}

func (d *Dispatcher) makeThumbnail(ctx context.Context, task *Task) (*thumbnail.Thumbnail, error) {
	if d.thumbs == nil || d.generate == nil {
		return nil, nil
	}
	return d.thumbs.GetOrCreate(ctx, task.File, d.generate)
}

func (d *Dispatcher) createGalleries(ctx context.Context, snap *config.Snapshot, adapter service.Adapter, tasks []*Task) {
	backend, ok := snap.Backends[adapter.Name()]
	if !ok || !backend.AutoGallery {
		return
	}
	creator, ok := adapter.(service.GalleryCreator)
	if !ok {
		return
	}
	lgr := zap.S()
	galleries := map[string]string{}
	for _, task := range tasks {
		if task.Group == "" {
			continue
		}
		id, seen := galleries[task.Group]
		if !seen {
			credentials, err := d.creds.Lookup(task.Service)
			if err == nil {
				id, err = creator.CreateGallery(ctx, task.Group, credentials)
			}
			if err != nil {
				// Uploads proceed ungrouped when the host refuses
				// the gallery.
				lgr.Warnw("gallery_create_failed",
					"service", task.Service,
					"group", task.Group,
					"err", err,
				)
				id = ""
			} else if id != "" {
				lgr.Infow("gallery_created",
					"service", task.Service,
					"group", task.Group,
					"gallery_id", id,
				)
			}
			galleries[task.Group] = id
		}
		task.GalleryID = id
	}
}

func (d *Dispatcher) transition(task *Task, state State, pub *publisher) {
	task.state = state
	pub.publish(Event{
		Type:    EventStateChange,
		TaskID:  task.ID,
		Path:    task.File.Name(),
		Service: task.Service,
		State:   state,
		Attempt: task.attempts,
	})
}

// settleTask finalizes the task, emits the terminal event, counts it, and
// appends its history record. finalize applies a last state change for
// tasks settled outside runTask.
func (d *Dispatcher) settleTask(task *Task, pub *publisher, h *Handle, finalize settleFn) {
	if finalize != nil {
		finalize()
	}
	terminal := Event{
		Type:    EventStateChange,
		TaskID:  task.ID,
		Path:    task.File.Name(),
		Service: task.Service,
		State:   task.state,
		Attempt: task.attempts,
	}
	if task.state != StateSucceeded {
		terminal.Err = task.lastErr
	}
	pub.publish(terminal)

	outcome := history.OutcomeFailed
	switch {
	case task.state == StateSucceeded:
		outcome = history.OutcomeSucceeded
		metrics.Dispatch.UploadedFiles.Inc()
		metrics.Dispatch.UploadedBytes.Add(float64(task.File.Len()))
	case task.canceled:
		outcome = history.OutcomeCanceled
		metrics.Dispatch.CanceledTasks.Inc()
	default:
		metrics.Dispatch.FailedFiles.Inc()
	}

	record := history.Record{
		TaskID:    task.ID.String(),
		Path:      task.File.Name(),
		Service:   task.Service,
		Outcome:   outcome,
		Attempts:  task.attempts,
		StartedAt: unixtime.Seconds(task.startedAt.Unix()),
		SettledAt: unixtime.Seconds(task.settledAt.Unix()),
	}
	if task.startedAt.IsZero() {
		record.StartedAt = unixtime.Seconds(task.createdAt.Unix())
	}
	if !task.settledAt.IsZero() && !task.startedAt.IsZero() {
		record.DurationSeconds = task.settledAt.Sub(task.startedAt).Seconds()
	}
	if task.result != nil {
		record.URL = task.result.URL
	}
	if task.state != StateSucceeded && task.lastErr != nil {
		record.LastError = task.lastErr.Error()
	}
	d.appendRecord(h, record)

	// Drop the preview payload so settled sub-batches can be reclaimed.
	task.thumb = nil
}

func (d *Dispatcher) settleRejected(h *Handle, rawPath, svc string, err error) {
	zap.S().Warnw("path_rejected",
		"path", rawPath,
		"kind", pathcheck.KindOf(err),
		"err", err,
	)
	now := unixtime.Now()
	d.appendRecord(h, history.Record{
		Path:      rawPath,
		Service:   svc,
		Outcome:   history.OutcomeRejected,
		StartedAt: now,
		SettledAt: now,
		LastError: err.Error(),
	})
}

func (d *Dispatcher) appendRecord(h *Handle, record history.Record) {
	if err := d.sink.Append(record); err != nil {
		zap.S().Errorw("history_append_failed",
			"path", record.Path,
			"err", err,
		)
	}
	h.appendRecord(record)
}
