package pipeline

import (
	"context"
	"slices"
	"sync"
)

// tracker counts tasks that are queued or running across every stage, so
// Wait can tell when the whole pipeline has drained.
type tracker struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func newTracker() *tracker {
	t := &tracker{idle: make(chan struct{})}
	close(t.idle)
	return t
}

func (t *tracker) add() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == 0 {
		t.idle = make(chan struct{})
	}
	t.n++
}

func (t *tracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n--
	if t.n == 0 {
		close(t.idle)
	}
}

func (t *tracker) wait(ctx context.Context) error {
	t.mu.Lock()
	ch := t.idle
	t.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker runs tasks one at a time, in FIFO order, on a single goroutine.
// A task equal to one still waiting in the queue is dropped; the task that is
// currently running does not count.
type worker[T comparable] struct {
	name    string
	handle  func(T)
	tracker *tracker

	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func newWorker[T comparable](name string, tr *tracker, handle func(T)) *worker[T] {
	w := &worker[T]{
		name:    name,
		handle:  handle,
		tracker: tr,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue adds task unless an equal task is already waiting. It never blocks.
func (w *worker[T]) Enqueue(task T) bool {
	w.mu.Lock()
	if slices.Contains(w.queue, task) {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, task)
	w.tracker.add()
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
	return true
}

// Len returns the number of waiting tasks.
func (w *worker[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *worker[T]) next() (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var zero T
	if len(w.queue) == 0 {
		return zero, false
	}
	task := w.queue[0]
	w.queue[0] = zero
	w.queue = w.queue[1:]
	return task, true
}

func (w *worker[T]) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		task, ok := w.next()
		if !ok {
			select {
			case <-w.notify:
				continue
			case <-w.stop:
				return
			}
		}
		w.handle(task)
		w.tracker.done()
	}
}

// close stops the worker after the running task and discards the rest of the
// queue.
func (w *worker[T]) close() {
	close(w.stop)
	<-w.done
	w.mu.Lock()
	dropped := len(w.queue)
	w.queue = nil
	w.mu.Unlock()
	for i := 0; i < dropped; i++ {
		w.tracker.done()
	}
}
