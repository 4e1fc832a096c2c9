package journal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/VanDung-dev/HieraChain-Notify/notify"
)

const (
	// DefaultBatchSize is the number of frames buffered before a batch is written.
	DefaultBatchSize = 256
	// DefaultFlushInterval bounds how long a frame stays buffered.
	DefaultFlushInterval = 5 * time.Second
)

// ErrClosed is returned when flushing a closed recorder.
var ErrClosed = errors.New("journal is closed")

// Option configures a Recorder.
type Option func(*Recorder)

// WithBatchSize sets how many frames are buffered before a batch is written.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithFlushInterval sets the periodic flush interval. Zero disables it.
func WithFlushInterval(d time.Duration) Option {
	return func(r *Recorder) { r.interval = d }
}

// WithClock sets the clock driving periodic flushes.
func WithClock(c clock.Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// Recorder streams delivered frames to an Arrow IPC stream as record
// batches. At most one batch of frames is held in memory; a batch is written
// when it is full or when the flush interval elapses. It implements
// notify.Recorder.
type Recorder struct {
	allocator memory.Allocator
	schema    *arrow.Schema
	log       *zap.Logger
	clock     clock.Clock
	batchSize int
	interval  time.Duration

	mu      sync.Mutex
	file    *os.File
	writer  *ipc.Writer
	frames  []notify.Frame
	written int64
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer, opts ...Option) *Recorder {
	r := &Recorder{
		allocator: memory.DefaultAllocator,
		schema:    FrameSchema(),
		log:       zap.NewNop(),
		clock:     clock.New(),
		batchSize: DefaultBatchSize,
		interval:  DefaultFlushInterval,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.writer = ipc.NewWriter(w, ipc.WithSchema(r.schema), ipc.WithAllocator(r.allocator))

	if r.interval > 0 {
		ticker := r.clock.Ticker(r.interval)
		r.wg.Add(1)
		go r.flushLoop(ticker)
	}
	return r
}

// Create truncates or creates the file at path and records into it.
func Create(path string, opts ...Option) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	r := NewRecorder(f, opts...)
	r.file = f
	return r, nil
}

func (r *Recorder) flushLoop(ticker *clock.Ticker) {
	defer r.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if err := r.Flush(); err != nil && !errors.Is(err, ErrClosed) {
				r.log.Error("journal flush failed", zap.Error(err))
			}
		}
	}
}

// Record implements notify.Recorder. Frames recorded after Close are dropped.
func (r *Recorder) Record(f notify.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.frames = append(r.frames, f)
	if len(r.frames) >= r.batchSize {
		if err := r.flushLocked(); err != nil {
			r.log.Error("journal flush failed", zap.Error(err))
		}
	}
}

// Buffered returns the number of frames not yet written.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Written returns the number of frames written so far.
func (r *Recorder) Written() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Flush writes the buffered frames as one record batch.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.flushLocked()
}

// flushLocked drops the batch if the write fails so memory stays bounded.
func (r *Recorder) flushLocked() error {
	if len(r.frames) == 0 {
		return nil
	}
	frames := r.frames
	r.frames = nil

	record := buildRecord(r.allocator, r.schema, frames)
	defer record.Release()

	if err := r.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	r.written += int64(len(frames))
	return nil
}

// Close writes the remaining frames, ends the stream and closes the file
// opened by Create.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	err := r.flushLocked()
	r.closed = true
	if cerr := r.writer.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close writer: %w", cerr)
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()
	return err
}

func buildRecord(allocator memory.Allocator, schema *arrow.Schema, frames []notify.Frame) arrow.Record {
	builder := array.NewRecordBuilder(allocator, schema)
	defer builder.Release()

	topicBuilder := builder.Field(0).(*array.StringBuilder)
	seqBuilder := builder.Field(1).(*array.Uint32Builder)
	tsBuilder := builder.Field(2).(*array.Int64Builder)
	partsBuilder := builder.Field(3).(*array.ListBuilder)
	partBuilder := partsBuilder.ValueBuilder().(*array.BinaryBuilder)

	for _, f := range frames {
		topicBuilder.Append(f.Topic)
		seqBuilder.Append(f.Sequence)
		tsBuilder.Append(f.Time.UnixMilli())
		partsBuilder.Append(true)
		for _, part := range f.Parts {
			partBuilder.Append(part)
		}
	}

	return builder.NewRecord()
}

// Decode reads every frame from an Arrow IPC stream written by a Recorder.
// A stream that is still being written decodes up to its last whole batch.
func Decode(data []byte) ([]notify.Frame, error) {
	return DecodeFrom(bytes.NewReader(data))
}

// DecodeFrom is Decode over a reader.
func DecodeFrom(in io.Reader) ([]notify.Frame, error) {
	reader, err := ipc.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Release()

	var frames []notify.Frame
	for reader.Next() {
		batch, err := decodeRecord(reader.Record())
		if err != nil {
			return nil, err
		}
		frames = append(frames, batch...)
	}
	if reader.Err() != nil {
		return frames, reader.Err()
	}
	return frames, nil
}

func decodeRecord(record arrow.Record) ([]notify.Frame, error) {
	if record.NumCols() != 4 {
		return nil, fmt.Errorf("invalid record: expected 4 columns, got %d", record.NumCols())
	}

	topicCol, ok := record.Column(0).(*array.String)
	if !ok {
		return nil, errors.New("column 0 (topic) is not a String array")
	}
	seqCol, ok := record.Column(1).(*array.Uint32)
	if !ok {
		return nil, errors.New("column 1 (sequence) is not a Uint32 array")
	}
	tsCol, ok := record.Column(2).(*array.Int64)
	if !ok {
		return nil, errors.New("column 2 (timestamp_ms) is not an Int64 array")
	}
	partsCol, ok := record.Column(3).(*array.List)
	if !ok {
		return nil, errors.New("column 3 (parts) is not a List array")
	}
	values, ok := partsCol.ListValues().(*array.Binary)
	if !ok {
		return nil, errors.New("column 3 (parts) does not hold Binary values")
	}

	frames := make([]notify.Frame, record.NumRows())
	for i := range frames {
		start, end := partsCol.ValueOffsets(i)
		parts := make([][]byte, 0, end-start)
		for j := start; j < end; j++ {
			parts = append(parts, bytes.Clone(values.Value(int(j))))
		}
		frames[i] = notify.Frame{
			Topic:    topicCol.Value(i),
			Sequence: seqCol.Value(i),
			Time:     time.UnixMilli(tsCol.Value(i)),
			Parts:    parts,
		}
	}
	return frames, nil
}
