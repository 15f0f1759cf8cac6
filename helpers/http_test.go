package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	result, err := FetchPage(context.Background(), server.URL, 5*time.Second)
	assert.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, 200, result.StatusCode)
	assert.Contains(t, result.Body, "ok")
}

func TestFetchPageNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// A completed exchange with an error status is a result, not an
	// error; callers decide what a 503 means.
	result, err := FetchPage(context.Background(), server.URL, 5*time.Second)
	assert.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
}

func TestFetchPageTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	start := time.Now()
	result, err := FetchPage(context.Background(), server.URL, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsTimeout(err))
	assert.Less(t, elapsed, time.Second, "fetch must give up at the deadline, not hang")
}

func TestFetchPageUnreachableHost(t *testing.T) {
	result, err := FetchPage(context.Background(), "http://127.0.0.1:1", 2*time.Second)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(nil))
	assert.False(t, IsTimeout(assert.AnError))
}
