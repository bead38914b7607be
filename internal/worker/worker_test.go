package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-reviewer/internal/notify"
	"github.com/jonathan/resume-reviewer/internal/objectstore"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
	"github.com/jonathan/resume-reviewer/internal/scoring"
	"github.com/jonathan/resume-reviewer/internal/types"
)

type fakeDownloader struct {
	mu      sync.Mutex
	objects map[string][]byte
	fails   int
	calls   int
}

func (f *fakeDownloader) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("connection reset")
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, objectstore.ErrObjectNotFound
	}
	return data, nil
}

type fakeRunner struct {
	mu   sync.Mutex
	opts []pipeline.RunOptions
	err  error
	// noScores completes the run without a summary
	noScores bool
}

func (f *fakeRunner) Run(_ context.Context, opts pipeline.RunOptions) (*types.Run, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if opts.OnProgress != nil {
		opts.OnProgress(types.ProgressEvent{ThreadID: opts.ThreadID, Step: "preliminary_info",
			Index: 1, Total: 6, Status: types.StepStatusCompleted})
	}
	if f.err != nil {
		return &types.Run{ThreadID: opts.ThreadID, Status: types.RunStatusFailed}, f.err
	}
	if f.noScores {
		err := &scoring.EmptyScoreSetError{Set: scoring.SetResumePositive}
		return &types.Run{ThreadID: opts.ThreadID, Status: types.RunStatusCompleted, Error: err.Error()}, err
	}
	return &types.Run{ThreadID: opts.ThreadID, Status: types.RunStatusCompleted,
		Summary: &types.ScoreSummary{OverallMatch: 475}}, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []notify.Update
}

func (p *recordingPublisher) Publish(u notify.Update) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, u := range p.updates {
		out = append(out, u.Status)
	}
	return out
}

func newTestWorker(d *fakeDownloader, r *fakeRunner, p *recordingPublisher) *Worker {
	w := New(d, r, p, nil, 2)
	w.backoff = 0
	return w
}

func TestProcess_Success(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"uploads/jane.txt": []byte("Jane Doe\nSoftware Engineer")}}
	r := &fakeRunner{}
	p := &recordingPublisher{}
	w := newTestWorker(d, r, p)

	err := w.Process(context.Background(), []byte(`{"thread_id":"t-1","object_key":"uploads/jane.txt"}`))
	require.NoError(t, err)

	require.Len(t, r.opts, 1)
	assert.Equal(t, "t-1", r.opts[0].ThreadID)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", r.opts[0].Resume)
	assert.Equal(t, "jane.txt", r.opts[0].SourceName)

	assert.Equal(t, []string{notify.StatusProcessing, types.StepStatusCompleted, notify.StatusCompleted}, p.statuses())
	last := p.updates[len(p.updates)-1]
	assert.Equal(t, &types.ScoreSummary{OverallMatch: 475}, last.Content)
	for _, u := range p.updates {
		assert.Equal(t, "t-1", u.ThreadID)
	}
}

func TestProcess_CompletedWithoutScores(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"a.txt": []byte("resume")}}
	p := &recordingPublisher{}
	w := newTestWorker(d, &fakeRunner{noScores: true}, p)

	require.NoError(t, w.Process(context.Background(), []byte(`{"thread_id":"t-2","object_key":"a.txt"}`)))

	assert.Equal(t, []string{notify.StatusProcessing, types.StepStatusCompleted, notify.StatusCompleted}, p.statuses())
	last := p.updates[len(p.updates)-1]
	assert.Nil(t, last.Content)
	assert.Equal(t, "score set resume_positive is empty: mean is undefined", last.Error)
	assert.Contains(t, last.Message, "without a score summary")

	data, err := json.Marshal(last)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"content"`)
	assert.Contains(t, string(data), `"error":"score set resume_positive is empty`)
}

func TestProcess_RetriesDownload(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"a.txt": []byte("resume")}, fails: 2}
	w := newTestWorker(d, &fakeRunner{}, &recordingPublisher{})

	require.NoError(t, w.Process(context.Background(), []byte(`{"thread_id":"t","object_key":"a.txt"}`)))
	assert.Equal(t, 3, d.calls)
}

func TestProcess_MissingObjectIsNotRetried(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{}}
	p := &recordingPublisher{}
	w := newTestWorker(d, &fakeRunner{}, p)

	err := w.Process(context.Background(), []byte(`{"thread_id":"t","object_key":"missing.pdf"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, objectstore.ErrObjectNotFound)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, []string{notify.StatusProcessing, notify.StatusFailed}, p.statuses())
}

func TestProcess_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		runErr   error
		statuses []string
	}{
		{name: "invalid json", body: `{not json`},
		{name: "missing object key", body: `{"thread_id":"t"}`, statuses: []string{notify.StatusFailed}},
		{name: "undecodable text", body: `{"thread_id":"t","object_key":"a.bin"}`,
			statuses: []string{notify.StatusProcessing, notify.StatusFailed}},
		{name: "pipeline error", body: `{"thread_id":"t","object_key":"a.txt"}`, runErr: errors.New("stage failed"),
			statuses: []string{notify.StatusProcessing, types.StepStatusCompleted, notify.StatusFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDownloader{objects: map[string][]byte{"a.txt": []byte("resume"), "a.bin": {0xff, 0xfe, 0x00}}}
			p := &recordingPublisher{}
			w := newTestWorker(d, &fakeRunner{err: tt.runErr}, p)

			err := w.Process(context.Background(), []byte(tt.body))
			assert.Error(t, err)
			assert.Equal(t, tt.statuses, p.statuses())
		})
	}
}

func TestProcess_GeneratesThreadID(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"a.txt": []byte("resume")}}
	r := &fakeRunner{}
	w := newTestWorker(d, r, &recordingPublisher{})

	require.NoError(t, w.Process(context.Background(), []byte(`{"object_key":"a.txt"}`)))
	require.Len(t, r.opts, 1)
	assert.Len(t, r.opts[0].ThreadID, 36)
}

func TestConsume_DrainsUntilClosed(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"a.txt": []byte("resume")}}
	r := &fakeRunner{}
	w := newTestWorker(d, r, &recordingPublisher{})

	msgs := make(chan amqp.Delivery, 4)
	msgs <- amqp.Delivery{Body: []byte(`{"thread_id":"1","object_key":"a.txt"}`)}
	msgs <- amqp.Delivery{Body: []byte(`garbage`)}
	msgs <- amqp.Delivery{Body: []byte(`{"thread_id":"2","object_key":"a.txt"}`)}
	close(msgs)

	require.NoError(t, w.Consume(context.Background(), msgs))
	assert.Len(t, r.opts, 2)
}

func TestConsume_StopsOnCancel(t *testing.T) {
	w := newTestWorker(&fakeDownloader{}, &fakeRunner{}, &recordingPublisher{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Consume(ctx, make(chan amqp.Delivery)) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}
