package webapi

// SessionState is the API view of the session's cursors and progress.
type SessionState struct {
	ID          string `json:"id"`
	Page        int    `json:"page"`
	PageCount   int    `json:"pageCount"`
	PairIndex   int    `json:"pairIndex"`
	PairCount   int    `json:"pairCount"`
	Judged      int    `json:"judged"`
	TotalCells  int    `json:"totalCells"`
	Complete    bool   `json:"complete"`
	Submitted   bool   `json:"submitted"`
	EvaluatorID string `json:"evaluatorId"`
}

// Utterance is one turn of conversation context.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// CellView is everything the display layer needs to render one judgment
// cell. The candidate models stay anonymous: responses are labeled A and
// B, never by model name, so evaluators cannot develop model bias.
type CellView struct {
	Page          int         `json:"page"`
	PairIndex     int         `json:"pairIndex"`
	PairLabel     string      `json:"pairLabel"`
	Title         string      `json:"title"`
	Speaker       string      `json:"speaker"`
	Context       []Utterance `json:"context"`
	GoldResponse  string      `json:"goldResponse"`
	ResponseA     string      `json:"responseA"`
	ResponseB     string      `json:"responseB"`
	PersonaFacts  []string    `json:"personaFacts,omitempty"`
	Outcome       string      `json:"outcome,omitempty"`
	OriginalIndex int         `json:"originalIndex"`
}

// NavigateRequest moves a cursor. Action is one of next_page, prev_page,
// next_pair, prev_pair, jump_page, jump_pair; the jump actions read the
// corresponding target field.
type NavigateRequest struct {
	Action string `json:"action"`
	Page   int    `json:"page,omitempty"`
	Pair   int    `json:"pair,omitempty"`
}

// JudgmentRequest records or toggles an outcome for a cell. The pair is
// addressed by index to keep model identities out of the client.
type JudgmentRequest struct {
	Page      int    `json:"page"`
	PairIndex int    `json:"pairIndex"`
	Outcome   string `json:"outcome"`
}

// EvaluatorRequest sets the evaluator identifier.
type EvaluatorRequest struct {
	EvaluatorID string `json:"evaluatorId"`
}

// SubmitResponse reports a successful submission.
type SubmitResponse struct {
	Rows      int  `json:"rows"`
	Submitted bool `json:"submitted"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
