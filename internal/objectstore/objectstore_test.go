package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-reviewer/internal/config"
)

type fakeS3 struct {
	objects map[string][]byte
	err     error
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestGet(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"uploads/jane.pdf": []byte("%PDF-1.4")}}
	store := NewWithClient(fake, "resumes")

	data, err := store.Get(context.Background(), "uploads/jane.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
	assert.Equal(t, "resumes", *fake.input.Bucket)
}

func TestGet_NotFound(t *testing.T) {
	store := NewWithClient(&fakeS3{objects: map[string][]byte{}}, "resumes")
	_, err := store.Get(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestGet_TransportError(t *testing.T) {
	store := NewWithClient(&fakeS3{err: errors.New("connection reset")}, "resumes")
	_, err := store.Get(context.Background(), "jane.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGet_TooLarge(t *testing.T) {
	big := make([]byte, MaxObjectSize+1)
	store := NewWithClient(&fakeS3{objects: map[string][]byte{"big.pdf": big}}, "resumes")
	_, err := store.Get(context.Background(), "big.pdf")
	assert.ErrorIs(t, err, ErrObjectTooLarge)
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), config.R2Config{Bucket: "resumes"})
	assert.Error(t, err)

	store, err := New(context.Background(), config.R2Config{
		AccountID: "acct", Bucket: "resumes", AccessKey: "a", SecretKey: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, "resumes", store.Bucket())
}
