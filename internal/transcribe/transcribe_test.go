package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"transcriber/internal/backoff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = backoff.Policy{Retries: 2, Base: time.Millisecond, Max: time.Millisecond}

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.ogg")
	require.NoError(t, os.WriteFile(path, []byte("fake-audio"), 0o644))
	return path
}

func TestWhisper_Transcribe(t *testing.T) {
	var gotModel, gotLang, gotFormat, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		gotFormat = r.FormValue("response_format")
		f, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f)
		gotFile = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"task": "transcribe",
			"language": "english",
			"duration": 12.5,
			"text": " Hello there. ",
			"segments": [{"id": 0, "start": 0, "end": 2.5, "text": " Hello there."}]
		}`)
	}))
	defer srv.Close()

	w := NewWhisper(Options{APIKey: "gsk-test", BaseURL: srv.URL + "/", Model: "whisper-large-v3", Language: "en", Retry: fastRetry})
	tr, err := w.Transcribe(context.Background(), audioFile(t))
	require.NoError(t, err)

	assert.Equal(t, "whisper-large-v3", gotModel)
	assert.Equal(t, "en", gotLang)
	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "fake-audio", gotFile)

	assert.Equal(t, "Hello there.", tr.Text)
	assert.Equal(t, "english", tr.Language)
	assert.Equal(t, 12500*time.Millisecond, tr.Duration)
	require.Len(t, tr.Segments, 1)
	assert.Equal(t, "Hello there.", tr.Segments[0].Text)
}

func TestWhisper_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"text":"ok"}`)
	}))
	defer srv.Close()

	w := NewWhisper(Options{APIKey: "k", BaseURL: srv.URL, Retry: fastRetry})
	tr, err := w.Transcribe(context.Background(), audioFile(t))
	require.NoError(t, err)
	assert.Equal(t, "ok", tr.Text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestWhisper_DoesNotRetryAuthErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	w := NewWhisper(Options{APIKey: "bad", BaseURL: srv.URL, Retry: fastRetry})
	_, err := w.Transcribe(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWhisper_MissingFile(t *testing.T) {
	w := NewWhisper(Options{APIKey: "k", BaseURL: "http://127.0.0.1:1", Retry: fastRetry})
	_, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.ogg"))
	assert.Error(t, err)
}
