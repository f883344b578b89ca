// Package corpus loads the JSONL record stores that feed an evaluation
// session: conversational prompts with their gold references, per-model
// response outputs, and persona facts for the display layer.
package corpus

// Turn is a single utterance in a conversation context. Each turn is a
// one-key map from speaker name to what they said, preserving the shape
// of the source records.
type Turn map[string]string

// Prompt is one conversational prompt with its gold reference response.
type Prompt struct {
	Title    string `json:"title"`
	Speaker  string `json:"speaker"`
	Context  []Turn `json:"context"`
	Response string `json:"response"`
}

// Response is one model output, aligned index-for-index with the prompt
// corpus it was generated from.
type Response struct {
	Output string `json:"output"`
}

// PersonaFact is a single free-text fact about a character, keyed by the
// work it appears in and the character's name.
type PersonaFact struct {
	Title   string `json:"title"`
	Name    string `json:"name"`
	Persona string `json:"persona"`
}

// Facts returns every persona fact matching the given title and speaker,
// in corpus order.
func Facts(facts []PersonaFact, title, speaker string) []PersonaFact {
	var matched []PersonaFact
	for _, f := range facts {
		if f.Title == title && f.Name == speaker {
			matched = append(matched, f)
		}
	}
	return matched
}
