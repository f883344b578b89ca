// Package webapi exposes one live evaluation session over HTTP so a
// browser display layer can drive it. The API never reveals which model
// produced which response; cells are addressed by (page, pair index).
package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/ledger"
	"github.com/kotoba-bench/prefeval/internal/session"
	"github.com/kotoba-bench/prefeval/internal/submit"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// Handlers holds the HTTP handler methods for the session API. A single
// mutex serializes access: the session itself is single-user state, and
// the HTTP layer is the one place several goroutines can reach it.
type Handlers struct {
	mu    sync.Mutex
	sess  *session.Session
	facts []corpus.PersonaFact
	sink  submit.Sink
	loc   *time.Location
}

// NewHandlers creates handlers over a session, its persona facts, and the
// sink submissions go to.
func NewHandlers(sess *session.Session, facts []corpus.PersonaFact, sink submit.Sink, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{sess: sess, facts: facts, sink: sink, loc: loc}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// HandleSession returns the session's cursors, progress, and flags.
func (h *Handlers) HandleSession(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.state())
}

func (h *Handlers) state() SessionState {
	judged, total := h.sess.Progress()
	return SessionState{
		ID:          h.sess.ID(),
		Page:        h.sess.Page(),
		PageCount:   h.sess.PageCount(),
		PairIndex:   h.sess.PairIndex(),
		PairCount:   h.sess.PairCount(),
		Judged:      judged,
		TotalCells:  total,
		Complete:    judged == total,
		Submitted:   h.sess.Submitted(),
		EvaluatorID: h.sess.EvaluatorID(),
	}
}

// HandleCell returns the active cell: conversation context, gold
// reference, persona facts, and the two anonymized candidate responses.
func (h *Handlers) HandleCell(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prompt := h.sess.Prompt()
	respA, respB := h.sess.Responses()

	view := CellView{
		Page:          h.sess.Page(),
		PairIndex:     h.sess.PairIndex(),
		PairLabel:     pairLabel(h.sess.PairIndex()),
		Title:         prompt.Title,
		Speaker:       prompt.Speaker,
		Context:       utterances(prompt.Context),
		GoldResponse:  prompt.Response,
		ResponseA:     respA,
		ResponseB:     respB,
		OriginalIndex: h.sess.OriginalIndex(),
	}
	for _, f := range corpus.Facts(h.facts, prompt.Title, prompt.Speaker) {
		view.PersonaFacts = append(view.PersonaFacts, f.Persona)
	}
	if outcome, ok := h.sess.OutcomeFor(h.sess.CurrentCell()); ok {
		view.Outcome = string(outcome)
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleNavigate applies one cursor transition. Relative moves clamp at
// the boundaries and always succeed; jump targets out of range are
// rejected without touching the cursors.
func (h *Handlers) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	switch req.Action {
	case "next_page":
		h.sess.NextPage()
	case "prev_page":
		h.sess.PrevPage()
	case "next_pair":
		h.sess.NextPair()
	case "prev_pair":
		h.sess.PrevPair()
	case "jump_page":
		err = h.sess.JumpToPage(req.Page)
	case "jump_pair":
		err = h.sess.JumpToPair(req.Pair)
	default:
		writeError(w, http.StatusBadRequest, "unknown action "+req.Action)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.state())
}

// HandleJudgment toggles an outcome on a cell: selecting the active
// outcome clears it, selecting another replaces it.
func (h *Handlers) HandleJudgment(w http.ResponseWriter, r *http.Request) {
	var req JudgmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome := ledger.Outcome(req.Outcome)
	if !outcome.Valid() {
		writeError(w, http.StatusBadRequest, "outcome must be model_a, model_b, or tie")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key, ok := h.cellKey(req.Page, req.PairIndex)
	if !ok {
		writeError(w, http.StatusBadRequest, "cell out of range")
		return
	}

	h.sess.Toggle(key, outcome)
	writeJSON(w, http.StatusOK, h.state())
}

// HandleClearJudgment returns a cell to the unjudged state.
func (h *Handlers) HandleClearJudgment(w http.ResponseWriter, r *http.Request) {
	var req JudgmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key, ok := h.cellKey(req.Page, req.PairIndex)
	if !ok {
		writeError(w, http.StatusBadRequest, "cell out of range")
		return
	}

	h.sess.ClearCell(key)
	writeJSON(w, http.StatusOK, h.state())
}

// HandleEvaluator sets the evaluator identifier.
func (h *Handlers) HandleEvaluator(w http.ResponseWriter, r *http.Request) {
	var req EvaluatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sess.SetEvaluatorID(req.EvaluatorID)
	writeJSON(w, http.StatusOK, h.state())
}

// HandleSubmit encodes the ledger and appends it to the sink. Gating
// violations come back as 409 with a guidance message; a sink failure is
// 502 and leaves the session intact for retry.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, total := h.sess.Progress()
	err := h.sess.Submit(r.Context(), h.sink, time.Now().In(h.loc))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, SubmitResponse{Rows: total, Submitted: true})
	case errors.Is(err, session.ErrIncompleteEvaluation),
		errors.Is(err, session.ErrMissingEvaluatorID),
		errors.Is(err, session.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrPersistenceFailure):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handlers) cellKey(page, pairIndex int) (ledger.CellKey, bool) {
	if page < 0 || page >= h.sess.PageCount() || pairIndex < 0 || pairIndex >= h.sess.PairCount() {
		return ledger.CellKey{}, false
	}
	p := h.sess.PairAt(pairIndex)
	return ledger.CellKey{Page: page, ModelA: p.A, ModelB: p.B}, true
}

// RegisterRoutes registers all session API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/session", h.HandleSession)
	mux.HandleFunc("GET /api/cell", h.HandleCell)
	mux.HandleFunc("POST /api/navigate", h.HandleNavigate)
	mux.HandleFunc("POST /api/judgments", h.HandleJudgment)
	mux.HandleFunc("DELETE /api/judgments", h.HandleClearJudgment)
	mux.HandleFunc("POST /api/evaluator", h.HandleEvaluator)
	mux.HandleFunc("POST /api/submit", h.HandleSubmit)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// utterances flattens conversation turns into speaker/text pairs. Each
// turn maps speakers to what they said; keys are sorted so the output is
// stable for turns with more than one speaker.
func utterances(turns []corpus.Turn) []Utterance {
	var out []Utterance
	for _, turn := range turns {
		speakers := make([]string, 0, len(turn))
		for s := range turn {
			speakers = append(speakers, s)
		}
		sort.Strings(speakers)
		for _, s := range speakers {
			out = append(out, Utterance{Speaker: s, Text: turn[s]})
		}
	}
	return out
}

// pairLabel renders the anonymized label shown for a pair, 1-based.
func pairLabel(i int) string {
	return "Pair " + strconv.Itoa(i+1)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}
