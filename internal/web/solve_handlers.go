package web

import (
	"net/http"
	"strconv"

	"github.com/clayarnold/crosstrainer/internal/corpus"
	"github.com/clayarnold/crosstrainer/internal/domain"
	"github.com/clayarnold/crosstrainer/internal/storage"
)

const (
	defaultSolvesLimit = 20
	maxSolvesLimit     = 100
)

func (s *Server) handleListSolves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.SolveFilter{
		Solver:    q.Get("solver"),
		CrossType: q.Get("cross_type"),
		SortBy:    q.Get("sort_by"),
		SortDesc:  q.Get("sort_order") == "desc",
		Limit:     defaultSolvesLimit,
	}

	for _, bound := range []struct {
		name string
		dst  **float64
	}{
		{"min_result", &f.MinResult},
		{"max_result", &f.MaxResult},
	} {
		if raw := q.Get(bound.name); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_INPUT", bound.name+" must be a number")
				return
			}
			*bound.dst = &v
		}
	}

	for _, bound := range []struct {
		name string
		dst  **int
	}{
		{"min_cross", &f.MinCross}, {"max_cross", &f.MaxCross},
		{"min_pair1", &f.MinPair1}, {"max_pair1", &f.MaxPair1},
		{"min_pair2", &f.MinPair2}, {"max_pair2", &f.MaxPair2},
		{"min_pair3", &f.MinPair3}, {"max_pair3", &f.MaxPair3},
		{"min_f2l", &f.MinF2L}, {"max_f2l", &f.MaxF2L},
		{"min_total", &f.MinTotal}, {"max_total", &f.MaxTotal},
	} {
		if raw := q.Get(bound.name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_INPUT", bound.name+" must be an integer")
				return
			}
			*bound.dst = &v
		}
	}

	var err error
	if v, present, e := queryInt(r, "limit"); present {
		if e != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be an integer")
			return
		}
		f.Limit = v
	}
	if f.Limit <= 0 || f.Limit > maxSolvesLimit {
		f.Limit = defaultSolvesLimit
	}
	if f.Offset, _, err = queryInt(r, "offset"); err != nil || f.Offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "offset must be a non-negative integer")
		return
	}

	solves, total, err := s.db.ListSolves(r.Context(), f)
	if err != nil {
		serveError(w, err)
		return
	}
	if solves == nil {
		solves = []domain.Solve{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"solves": solves, "total": total})
}

func (s *Server) handleGetSolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid solve id")
		return
	}
	solve, err := s.db.FindSolve(r.Context(), id)
	if err != nil {
		serveError(w, err)
		return
	}
	if solve == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "solve not found")
		return
	}
	writeJSON(w, http.StatusOK, solve)
}

func (s *Server) handleRandomScrambles(w http.ResponseWriter, r *http.Request) {
	moves, present, err := queryInt(r, "moves")
	if !present || err != nil || moves < corpus.MinScrambleMoves || moves > corpus.MaxScrambleMoves {
		writeError(w, http.StatusBadRequest, "INVALID_PARAMS", "moves must be an integer between 1 and 7")
		return
	}
	count, _, err := queryInt(r, "count")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAMS", "count must be an integer")
		return
	}
	if count <= 0 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	scrambles, err := s.db.RandomScrambles(r.Context(), moves, count)
	if err != nil {
		serveError(w, err)
		return
	}
	texts := make([]string, 0, len(scrambles))
	for _, sc := range scrambles {
		texts = append(texts, sc.Scramble)
	}
	writeJSON(w, http.StatusOK, map[string]any{"scrambles": texts})
}

func (s *Server) handleScrambleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.ScrambleCounts(r.Context())
	if err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}
