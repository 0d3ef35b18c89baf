package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rhettg/noteapi/internal/mw"
	"github.com/rhettg/noteapi/internal/notes"
)

const maxBodyBytes = 1 << 20

type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

// routes is the complete HTTP surface. Paths match exactly.
func (s *Server) routes() []route {
	return []route{
		{http.MethodGet, "/notes/", s.listNotes},
		{http.MethodPost, "/notes/", s.createNote},
		{http.MethodGet, "/no_db_endpoint/", textHandler("No db endpoint")},
		{http.MethodGet, "/no_db_endpoint2/", textHandler("No db endpoint2")},
		{http.MethodGet, "/", textHandler("OK")},
	}
}

func textHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		textResponse(w, body, http.StatusOK)
	}
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.FindAll(r.Context())
	if err != nil {
		s.storeFailure(w, r, "error fetching notes", err)
		return
	}
	if list == nil {
		list = []notes.Note{}
	}

	if err := sendResponse(w, list, http.StatusOK); err != nil {
		slog.Error("error sending response", "error", err)
	}
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	n, err := decodeNote(w, r)
	if err != nil {
		mw.Extract(r.Context()).Info("rejected note", "error", err)
		errorResponse(w, err, http.StatusBadRequest)
		return
	}

	if err := s.store.Save(r.Context(), &n); err != nil {
		s.storeFailure(w, r, "error creating note", err)
		return
	}
	s.notesCreated.Inc()

	if _, err := s.feed.Publish(r.Context(), n); err != nil {
		s.feedErrors.Inc()
		mw.Extract(r.Context()).Error("failed publishing note", "note_id", n.ID, "error", err)
	}

	textResponse(w, "Note created", http.StatusCreated)
}

// decodeNote reads exactly one JSON object from the request body. Unknown
// fields are ignored and any client-supplied id is discarded.
func decodeNote(w http.ResponseWriter, r *http.Request) (notes.Note, error) {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	var n *notes.Note
	if err := dec.Decode(&n); err != nil {
		return notes.Note{}, fmt.Errorf("%w: %v", notes.ErrMalformedRequest, err)
	}
	if n == nil {
		return notes.Note{}, fmt.Errorf("%w: body must be a JSON object", notes.ErrMalformedRequest)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return notes.Note{}, fmt.Errorf("%w: unexpected data after note", notes.ErrMalformedRequest)
	}

	n.ID = 0
	return *n, nil
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := http.StatusInternalServerError
	kind := "other"
	respErr := errors.New(msg)
	switch {
	case errors.Is(err, notes.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		kind = "unavailable"
		respErr = fmt.Errorf("%s: %w", msg, notes.ErrStoreUnavailable)
	case errors.Is(err, notes.ErrConstraintViolation):
		kind = "constraint"
		respErr = fmt.Errorf("%s: %w", msg, notes.ErrConstraintViolation)
	}

	s.storeErrors.WithLabelValues(kind).Inc()
	mw.Extract(r.Context()).Error(msg, "kind", kind, "error", err)
	errorResponse(w, respErr, status)
}

func errorResponse(w http.ResponseWriter, respErr error, statusCode int) {
	resp := struct {
		Error string `json:"error"`
	}{Error: respErr.Error()}

	err := sendResponse(w, resp, statusCode)
	if err != nil {
		slog.Error("error sending response", "error", err)
		return
	}
}

func sendResponse(w http.ResponseWriter, resp interface{}, statusCode int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(resp)
}

func textResponse(w http.ResponseWriter, body string, statusCode int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := io.WriteString(w, body); err != nil {
		slog.Error("error writing response", "error", err)
	}
}
