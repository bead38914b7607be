package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-reviewer/internal/types"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: DefaultExchange}

	require.NoError(t, p.Publish(Update{ThreadID: "abc", Status: StatusProcessing, Message: "analysis started"}))
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, "session_updates", sent.exchange)
	assert.Equal(t, "session.abc", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)

	var got Update
	require.NoError(t, json.Unmarshal(sent.msg.Body, &got))
	assert.Equal(t, "abc", got.ThreadID)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.False(t, got.Timestamp.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestFromProgress(t *testing.T) {
	ev := types.ProgressEvent{ThreadID: "t", Step: "candidate_fan", Index: 3, Total: 6,
		Status: types.StepStatusCompleted, Message: "Completed candidate_fan", Content: []string{"x"}}
	u := FromProgress(ev)
	assert.Equal(t, Update{ThreadID: "t", Step: "candidate_fan", Index: 3, Total: 6,
		Status: types.StepStatusCompleted, Message: "Completed candidate_fan", Content: []string{"x"}}, u)
}

func TestProgressFunc_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := &AMQPPublisher{ch: &fakeChannel{err: errors.New("channel closed")}, exchange: DefaultExchange}

	cb := ProgressFunc(p, zap.New(core))
	cb(types.ProgressEvent{ThreadID: "t", Step: "neutral_judge"})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to publish update", logs.All()[0].Message)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(Update{}))
	assert.NoError(t, p.Close())
}
