package gradcafe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), ClientOptions{
		BaseUrl:       server.URL,
		Query:         "computer science",
		Delay:         time.Millisecond,
		RetryCount:    2,
		RetryWaitTime: time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestNewClientRobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /survey/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := NewClient(context.Background(), ClientOptions{
		BaseUrl: server.URL,
		Query:   "computer science",
		Delay:   time.Millisecond,
	})
	require.ErrorIs(t, err, ErrDisallowed)
}

func TestNewClientNoRobotsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := NewClient(context.Background(), ClientOptions{
		BaseUrl: server.URL,
		Query:   "computer science",
		Delay:   time.Millisecond,
	})
	require.NoError(t, err)
}

func TestFetchPageRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))

	body, err := client.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
	require.EqualValues(t, 2, calls.Load())
}

func TestFetchPageExhaustedRetriesIsNotFatal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FetchPage(context.Background(), 1)
	require.Error(t, err)
	require.False(t, IsFatal(err))
}

func TestFetchPageBadRequestIsFatal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.FetchPage(context.Background(), 1)
	require.ErrorIs(t, err, ErrBadRequest)
	require.True(t, IsFatal(err))
}

func TestFetchPageSendsQuery(t *testing.T) {
	var gotQuery, gotPage string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotPage = r.URL.Query().Get("page")
		w.Write([]byte("<html></html>"))
	}))

	_, err := client.FetchPage(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "computer science", gotQuery)
	require.Equal(t, "7", gotPage)
}

func TestNewClientRejectsEmptyQuery(t *testing.T) {
	_, err := NewClient(context.Background(), ClientOptions{
		BaseUrl: "http://localhost:1",
	})
	require.ErrorIs(t, err, ErrBadRequest)
}
