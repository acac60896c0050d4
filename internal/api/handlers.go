package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cuetrack/internal/resolver"
	"cuetrack/internal/search"
	"cuetrack/internal/transcript"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	status := SessionStatus{
		ID:          s.session.ID(),
		State:       s.session.State(),
		Renderable:  s.session.Renderable(),
		Unavailable: s.session.Unavailable(),
		CueCount:    len(s.session.Cues()),
	}
	if index, ok := s.session.Active(); ok {
		status.Active = &index
	}
	if s.clock != nil {
		position := s.clock.CurrentTime()
		status.Position = &position
	}
	if err := s.session.Err(); err != nil {
		status.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCues(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(r, "limit", defaultPageSize)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxPageSize)

	cues := s.session.Cues()
	resp := CueListResponse{Items: []CueItem{}, Total: len(cues), Offset: offset}
	for i := offset; i < len(cues) && i < offset+limit; i++ {
		resp.Items = append(resp.Items, toCueItem(i, cues[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCue(w http.ResponseWriter, r *http.Request) {
	index, ok := s.cueIndex(w, r)
	if !ok {
		return
	}
	c, found := s.session.Cue(index)
	if !found {
		writeError(w, http.StatusNotFound, "cue not found")
		return
	}
	writeJSON(w, http.StatusOK, toCueItem(index, c))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	index, ok := s.cueIndex(w, r)
	if !ok {
		return
	}
	err := s.session.SeekToCue(index)
	switch {
	case errors.Is(err, transcript.ErrNoSuchCue):
		writeError(w, http.StatusNotFound, "cue not found")
		return
	case errors.Is(err, transcript.ErrNoPlayer):
		writeError(w, http.StatusConflict, "no player attached")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c, _ := s.session.Cue(index)
	writeJSON(w, http.StatusOK, toCueItem(index, c))
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("t"))
	if raw == "" {
		resp := ActiveResponse{}
		if index, ok := s.session.Active(); ok {
			if c, found := s.session.Cue(index); found {
				item := toCueItem(index, c)
				resp.Active = &item
			}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		writeError(w, http.StatusBadRequest, "invalid time")
		return
	}
	cues := s.session.Cues()
	resp := ActiveResponse{Time: &t}
	if index, ok := resolver.ResolveActive(cues, t); ok {
		item := toCueItem(index, cues[index])
		resp.Active = &item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	limit, err := intParam(r, "limit", 20)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	fuzzy, _ := strconv.ParseBool(r.URL.Query().Get("fuzzy"))

	matches := search.Find(s.session.Cues(), query, search.Options{Limit: limit, Fuzzy: fuzzy})
	resp := SearchResponse{Query: query, Matches: make([]MatchItem, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, MatchItem{CueItem: toCueItem(m.Index, m.Cue), Score: m.Score})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) cueIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid cue index")
		return 0, false
	}
	return index, true
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
