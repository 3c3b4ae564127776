package canonical

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizePicksBestCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/canonicalize", r.URL.Path)

		var query labelQuery
		err := json.NewDecoder(r.Body).Decode(&query)
		require.NoError(t, err)
		require.Equal(t, "Comp Science", query.Program)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(labelResponse{
			Candidates: []labelCandidate{
				{Program: "Computer Science", University: "Example State University"},
				{Program: "Composition", University: "Example Conservatory"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	program, university := client.Canonicalize(context.Background(), "Comp Science", "Example State Univ")
	require.Equal(t, "Computer Science", program)
	require.Equal(t, "Example State University", university)
}

func TestCanonicalizeKeepsOriginalsWhenServiceDown(t *testing.T) {
	// port 1 is never listening
	client := NewClient("http://127.0.0.1:1")
	program, university := client.Canonicalize(context.Background(), "CS", "U1")
	require.Equal(t, "CS", program)
	require.Equal(t, "U1", university)
}

func TestCanonicalizeKeepsOriginalsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	program, university := client.Canonicalize(context.Background(), "CS", "U1")
	require.Equal(t, "CS", program)
	require.Equal(t, "U1", university)
}

func TestCanonicalizeKeepsOriginalsOnEmptyAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(labelResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	program, university := client.Canonicalize(context.Background(), "CS", "U1")
	require.Equal(t, "CS", program)
	require.Equal(t, "U1", university)
}

func TestCanonicalizeRejectsDissimilarCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(labelResponse{
			Candidates: []labelCandidate{
				{Program: "Underwater Basket Weaving", University: "Somewhere Else Entirely"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	program, university := client.Canonicalize(context.Background(), "Computer Science", "Example State University")
	require.Equal(t, "Computer Science", program)
	require.Equal(t, "Example State University", university)
}
