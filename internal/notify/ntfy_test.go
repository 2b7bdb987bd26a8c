package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNtfy_PostsPlainText(t *testing.T) {
	var body, title, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		title = r.Header.Get("Title")
		method = r.Method
		_, _ = io.WriteString(w, `{"id":"x"}`)
	}))
	defer srv.Close()

	err := NewNtfy(srv.URL+"/my-topic", "Transcriber").Notify(context.Background(), "Transcribing audio/a.m4a")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "Transcribing audio/a.m4a", body)
	assert.Equal(t, "Transcriber", title)
}

func TestNtfy_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "forbidden")
	}))
	defer srv.Close()

	err := NewNtfy(srv.URL, "").Notify(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(context.Background(), "x"))
}
