package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"transcriber/internal/pipeline"

	"github.com/aws/aws-lambda-go/events"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	keys []string
	fail map[string]error
}

func (f *fakeProcessor) Process(_ context.Context, bucket, key string) (*pipeline.Result, error) {
	f.keys = append(f.keys, bucket+"/"+key)
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	return &pipeline.Result{JobID: "j", OutputKey: "transcriptions/x.txt"}, nil
}

func record(bucket, key string) events.S3EventRecord {
	return events.S3EventRecord{S3: events.S3Entity{
		Bucket: events.S3Bucket{Name: bucket},
		Object: events.S3Object{Key: key, URLDecodedKey: key},
	}}
}

func TestHandle_FiltersByPrefix(t *testing.T) {
	proc := &fakeProcessor{}
	h := &handler{proc: proc, prefix: "audio/", logger: log.New(io.Discard)}

	err := h.Handle(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		record("b", "audio/one.m4a"),
		record("b", "transcriptions/x.txt"),
		record("b", "audio/"),
		record("b", "audio/two.mp3"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b/audio/one.m4a", "b/audio/two.mp3"}, proc.keys)
}

func TestHandle_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	proc := &fakeProcessor{fail: map[string]error{"audio/one.m4a": boom}}
	h := &handler{proc: proc, prefix: "audio/", logger: log.New(io.Discard)}

	err := h.Handle(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		record("b", "audio/one.m4a"),
		record("b", "audio/two.m4a"),
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, proc.keys, 2)
}

func TestHandle_DecodedKey(t *testing.T) {
	proc := &fakeProcessor{}
	h := &handler{proc: proc, prefix: "audio/", logger: log.New(io.Discard)}

	rec := record("b", "audio/my+talk.m4a")
	rec.S3.Object.URLDecodedKey = "audio/my talk.m4a"
	require.NoError(t, h.Handle(context.Background(), events.S3Event{Records: []events.S3EventRecord{rec}}))
	assert.Equal(t, []string{"b/audio/my talk.m4a"}, proc.keys)
}
