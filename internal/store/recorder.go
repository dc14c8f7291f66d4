package store

import (
	"context"
	"time"

	"github.com/verte-zerg/keyviz/internal/model"
)

const defaultFlushEvery = 64

// Recorder buffers actions for one trace and writes them in batches.
type Recorder struct {
	store      *Store
	traceID    int64
	nextSeq    int64
	pending    []model.Action
	flushEvery int
}

// NewRecorder creates a trace and returns a recorder appending to it.
func NewRecorder(ctx context.Context, st *Store, name, source string, originMs float64) (*Recorder, error) {
	id, err := st.CreateTrace(ctx, name, source, time.Now(), originMs)
	if err != nil {
		return nil, err
	}
	return &Recorder{store: st, traceID: id, flushEvery: defaultFlushEvery}, nil
}

// TraceID returns the id of the trace being recorded.
func (r *Recorder) TraceID() int64 {
	return r.traceID
}

// Record queues an action, flushing once enough are pending.
func (r *Recorder) Record(a model.Action) error {
	r.nextSeq++
	a.Seq = r.nextSeq
	r.pending = append(r.pending, a)
	if len(r.pending) < r.flushEvery {
		return nil
	}
	return r.Flush(context.Background())
}

// Flush writes pending actions.
func (r *Recorder) Flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.store.AppendActions(ctx, r.traceID, r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}
