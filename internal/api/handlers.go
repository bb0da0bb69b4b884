package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/observe"
	"github.com/quillback/logbook/internal/ocr"
	"github.com/quillback/logbook/internal/store"
)

// extractResponse is the engine result plus persistence outcome. ID is
// zero when the server runs without a store.
type extractResponse struct {
	ID        int64 `json:"id,omitempty"`
	Duplicate bool  `json:"duplicate,omitempty"`
	extract.Result
}

// handleExtract runs the engine on the posted annotation. The body is the
// annotation itself, flat string or full object. The source query
// parameter labels the extraction; refine=true, as a query parameter or a
// body field next to the annotation content, requests LLM cleanup.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	ann, err := ocr.DecodeAnnotation(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.engine.Extract(ann)

	if (wantRefine(r) || bodyWantsRefine(body)) && s.refiner.Enabled() {
		res.Activities = s.refiner.Refine(r.Context(), res.Activities)
	}

	resp := extractResponse{Result: res}
	status := http.StatusOK

	if s.store != nil {
		saved, created, err := s.store.SaveResult(r.Context(), res, r.URL.Query().Get("source"))
		if err != nil {
			s.logger.Error("saving extraction", "error", err)
			writeError(w, http.StatusInternalServerError, "saving extraction failed")
			return
		}
		resp.ID = saved.ID
		resp.Duplicate = !created
		if created {
			status = http.StatusCreated
		}
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOpts{
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
		Source: r.URL.Query().Get("source"),
	}

	extractions, err := s.store.ListExtractions(r.Context(), opts)
	if err != nil {
		s.logger.Error("listing extractions", "error", err)
		writeError(w, http.StatusInternalServerError, "listing extractions failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"extractions": extractions,
		"count":       len(extractions),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid extraction id")
		return
	}

	extraction, err := s.store.GetExtraction(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("getting extraction", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "getting extraction failed")
		return
	}

	writeJSON(w, http.StatusOK, extraction)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid extraction id")
		return
	}

	err = s.store.DeleteExtraction(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("deleting extraction", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting extraction failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	hits, err := s.store.SearchActivities(r.Context(), query, queryInt(r, "limit", 10))
	if err != nil {
		s.logger.Error("searching activities", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query": query,
		"hits":  hits,
		"count": len(hits),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := observe.Gather(r.Context(), s.store)
	if err != nil {
		s.logger.Error("gathering stats", "error", err)
		writeError(w, http.StatusInternalServerError, "gathering stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func wantRefine(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("refine"))
	return v
}

// bodyWantsRefine reports whether an annotation object carried a refine
// flag. Flat string bodies have nowhere to put one and report false.
func bodyWantsRefine(body []byte) bool {
	var flags struct {
		Refine bool `json:"refine"`
	}
	if err := json.Unmarshal(body, &flags); err != nil {
		return false
	}
	return flags.Refine
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
