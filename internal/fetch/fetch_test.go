package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const body = `[{"chunk_index": 0, "compliance": [
  {"parameter": "Temp", "actual_value": "70", "expected_value": "65", "is_compliant": false, "explanation": "high"}
]}]`

func newTestClient(retries int) *Client {
	return New(Options{
		Retries:      retries,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})
}

func TestResults_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	rs, err := newTestClient(3).Results(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, rs.Entries, 1)
	require.Equal(t, "Temp", rs.Entries[0].Parameter)
	require.EqualValues(t, 3, calls.Load())
}

func TestResults_NotFoundIsStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestClient(2).Results(context.Background(), srv.URL+"/missing.json")
	var se StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	require.Equal(t, http.StatusNotFound, se.Code)
}

func TestResults_BadBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(0).Results(context.Background(), srv.URL)
	require.Error(t, err)
}
