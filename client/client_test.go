package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhettg/noteapi/internal/notes"
)

func TestListNotes(t *testing.T) {
	t.Run("returns notes on 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/notes/", r.URL.Path)
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[{"id":2,"title":"b","content":"y"},{"id":1,"title":"a","content":"x"}]`))
		}))
		defer server.Close()

		c := NewClient(server.URL + "/")

		list, err := c.ListNotes(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, notes.Note{ID: 2, Title: "b", Content: "y"}, list[0])
	})

	t.Run("returns error on non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"store unavailable"}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).ListNotes(context.Background())

		var se *StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
		require.Contains(t, se.Body, "store unavailable")
	})
}

func TestCreateNote(t *testing.T) {
	var got notes.Note
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("Note created"))
	}))
	defer server.Close()

	err := NewClient(server.URL).CreateNote(context.Background(), notes.Note{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.Equal(t, "t", got.Title)
	require.Equal(t, "c", got.Content)
}

func TestCreateNote_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewClient(server.URL).CreateNote(context.Background(), notes.Note{})
	require.Error(t, err)
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No db endpoint"))
	}))
	defer server.Close()

	body, err := NewClient(server.URL).Probe(context.Background(), "/no_db_endpoint/")
	require.NoError(t, err)
	require.Equal(t, "No db endpoint", body)
}
