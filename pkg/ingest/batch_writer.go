package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBatchWriterClosed is returned by Submit and by a second Close.
var ErrBatchWriterClosed = errors.New("batch writer closed")

// WriteFunc performs database writes inside the batch transaction. tx is nil
// when the writer has no database.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter groups writes into transactions of up to a fixed size, so an
// export of a large report commits once per batch of words instead of once per
// word. Batches are committed in submission order by a single goroutine.
type BatchWriter struct {
	ctx     context.Context
	db      *sql.DB
	size    int
	OnError func(error)
	// Logger reports each committed batch at debug level. nil disables it.
	Logger *slog.Logger

	mu      sync.Mutex
	pending []WriteFunc
	closed  bool

	batches chan []WriteFunc
	stop    chan struct{}
	ticker  *time.Ticker
	wg      sync.WaitGroup

	committed atomic.Int64

	errOnce  sync.Once
	firstErr error
}

// NewBatchWriter starts a writer that commits every size writes and, when
// flushInterval > 0, whatever is pending on each tick. Once ctx is done, batches
// not yet queued may be dropped; every drop is reported as an error.
func NewBatchWriter(ctx context.Context, db *sql.DB, size int, flushInterval time.Duration) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	bw := &BatchWriter{
		ctx:     ctx,
		db:      db,
		size:    size,
		pending: make([]WriteFunc, 0, size),
		batches: make(chan []WriteFunc, 2),
		stop:    make(chan struct{}),
	}

	bw.wg.Add(1)
	go bw.commitLoop()

	if flushInterval > 0 {
		bw.ticker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.tickLoop()
	}
	return bw
}

// Submit queues w. It blocks while two full batches are already waiting.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.pending = append(bw.pending, w)
	if len(bw.pending) >= bw.size {
		bw.handOff()
	}
	return nil
}

// handOff passes the pending writes to the commit loop. bw.mu must be held.
func (bw *BatchWriter) handOff() {
	if len(bw.pending) == 0 {
		return
	}
	batch := bw.pending
	bw.pending = make([]WriteFunc, 0, bw.size)

	select {
	case bw.batches <- batch:
	case <-bw.ctx.Done():
		bw.fail(fmt.Errorf("batch writer: dropped %d writes: %w", len(batch), bw.ctx.Err()))
	}
}

// fail records the first asynchronous error and forwards every error to OnError.
func (bw *BatchWriter) fail(err error) {
	bw.errOnce.Do(func() { bw.firstErr = err })
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) commitLoop() {
	defer bw.wg.Done()
	for batch := range bw.batches {
		if err := bw.commit(batch); err != nil {
			bw.fail(err)
		}
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Writes already handed off must land even while the writer shuts down.
	ctx := context.Background()

	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		bw.committed.Add(int64(len(batch)))
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch of %d: %w", len(batch), err)
	}

	total := bw.committed.Add(int64(len(batch)))
	if bw.Logger != nil {
		bw.Logger.Debug("batch committed", "writes", len(batch), "total", total)
	}
	return nil
}

func (bw *BatchWriter) tickLoop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.stop:
			return
		case <-bw.ticker.C:
			bw.mu.Lock()
			bw.handOff()
			bw.mu.Unlock()
		}
	}
}

// Committed returns how many writes have been committed so far.
func (bw *BatchWriter) Committed() int { return int(bw.committed.Load()) }

// Close flushes pending writes, waits for them to commit and returns the first
// error seen while committing.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	bw.handOff()
	bw.mu.Unlock()

	close(bw.stop)
	close(bw.batches)
	bw.wg.Wait()
	return bw.firstErr
}
