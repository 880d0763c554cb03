// Package chatqueue runs jobs one at a time per key, in submission order,
// while different keys progress in parallel.
package chatqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/m3rciful/imgbot/core/logger"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("chatqueue: closed")
	// ErrFull is returned when a key already has the maximum number of pending jobs.
	ErrFull = errors.New("chatqueue: queue full")
)

const defaultLimit = 64

// Queue keeps a FIFO of pending jobs per key. A key has at most one running
// goroutine, started on the first Submit and ended when its FIFO drains.
type Queue struct {
	limit int

	mu     sync.Mutex
	keys   map[int64][]func()
	closed bool
	wg     sync.WaitGroup
}

// New returns a queue accepting up to limit pending jobs per key.
// A non-positive limit uses the default of 64.
func New(limit int) *Queue {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Queue{limit: limit, keys: make(map[int64][]func())}
}

// Submit appends job to the FIFO of key. Jobs of the same key never overlap.
func (q *Queue) Submit(key int64, job func()) error {
	if job == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	pending, running := q.keys[key]
	if len(pending) >= q.limit {
		return fmt.Errorf("%w: key %d has %d pending", ErrFull, key, len(pending))
	}
	q.keys[key] = append(pending, job)
	if !running {
		q.wg.Add(1)
		go q.drain(key)
	}
	return nil
}

// Pending reports how many jobs of key are queued or running.
func (q *Queue) Pending(key int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys[key])
}

// Close rejects new jobs and waits until every accepted job has run.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

// drain runs the jobs of key until its FIFO is empty. The running job stays at
// the head of the slice so Submit sees the key as busy.
func (q *Queue) drain(key int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		pending := q.keys[key]
		if len(pending) == 0 {
			delete(q.keys, key)
			q.mu.Unlock()
			return
		}
		job := pending[0]
		q.mu.Unlock()

		run(key, job)

		q.mu.Lock()
		pending = q.keys[key]
		pending[0] = nil
		q.keys[key] = pending[1:]
		q.mu.Unlock()
	}
}

func run(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(context.Background(), "tg", "chatqueue.panic",
				slog.String("status", "fail"),
				slog.Int64("chat_id", key),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	job()
}
