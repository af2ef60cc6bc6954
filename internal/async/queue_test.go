package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
)

type fakeGenerator struct {
	calls atomic.Int32
	delay time.Duration
	fail  map[string]bool
}

func (f *fakeGenerator) Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[req.Report.Name] {
		return nil, errors.New("boom")
	}
	return &pipeline.Result{Variant: constants.USAA, FileName: constants.OutputFileName}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *collector) handle(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *collector) byReport() map[string]Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := map[string]Outcome{}
	for _, o := range c.outcomes {
		m[o.Job.Request.Report.Name] = o
	}
	return m
}

func job(report string) Job {
	return Job{Request: pipeline.Request{
		Template: common.Upload{Name: "t.docx"},
		Report:   common.Upload{Name: report},
	}}
}

func TestQueue_ProcessesEveryJob(t *testing.T) {
	gen := &fakeGenerator{fail: map[string]bool{"bad.pdf": true}}
	var c collector
	q := NewQueue(gen, c.handle, quietLogger(), WithWorkers(3), WithQueueSize(1))

	ctx := context.Background()
	for _, name := range []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf", "d.pdf"} {
		require.NoError(t, q.Enqueue(ctx, job(name)))
	}
	q.Shutdown(ctx)

	assert.EqualValues(t, 5, gen.calls.Load())
	got := c.byReport()
	require.Len(t, got, 5)
	assert.Error(t, got["bad.pdf"].Err)
	assert.Nil(t, got["bad.pdf"].Result)
	require.NoError(t, got["a.pdf"].Err)
	assert.Equal(t, constants.USAA, got["a.pdf"].Result.Variant)
	assert.NotEqual(t, got["a.pdf"].Job.ID, got["b.pdf"].Job.ID)
	assert.False(t, got["a.pdf"].Job.SubmittedAt.IsZero())
}

func TestQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewQueue(&fakeGenerator{}, nil, quietLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), job("late.pdf"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueue_ProcessTimeout(t *testing.T) {
	gen := &fakeGenerator{delay: time.Second}
	var c collector
	q := NewQueue(gen, c.handle, quietLogger(), WithProcessTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), job("slow.pdf")))
	q.Shutdown(context.Background())

	got := c.byReport()
	require.Contains(t, got, "slow.pdf")
	assert.ErrorIs(t, got["slow.pdf"].Err, context.DeadlineExceeded)
}

func TestQueue_EnqueueHonoursContextWhenFull(t *testing.T) {
	gen := &fakeGenerator{delay: 200 * time.Millisecond}
	q := NewQueue(gen, nil, quietLogger(), WithWorkers(1), WithQueueSize(1))
	defer q.Shutdown(context.Background())

	bg := context.Background()
	require.NoError(t, q.Enqueue(bg, job("1.pdf")))
	// Give the worker time to pick up the first job so the buffer holds the second.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(bg, job("2.pdf")))

	ctx, cancel := context.WithTimeout(bg, 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, job("3.pdf"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ParentContextCancelsJobs(t *testing.T) {
	gen := &fakeGenerator{delay: 5 * time.Second}
	var c collector
	parent, cancel := context.WithCancel(context.Background())
	q := NewQueue(gen, c.handle, quietLogger(), WithContext(parent), WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), job("running.pdf")))
	require.NoError(t, q.Enqueue(context.Background(), job("queued.pdf")))
	time.Sleep(20 * time.Millisecond)
	cancel()

	started := time.Now()
	q.Shutdown(context.Background())
	assert.Less(t, time.Since(started), time.Second)

	got := c.byReport()
	require.Len(t, got, 2)
	assert.ErrorIs(t, got["running.pdf"].Err, context.Canceled)
	assert.ErrorIs(t, got["queued.pdf"].Err, context.Canceled)
}
