// Package keyword provides full-text search over the patient roster, with
// fuzzy matching for misspelled names and conditions.
package keyword

// SearchOptions optional parameters for roster search. Nil means use defaults.
type SearchOptions struct {
	// NameBoost multiplies the score of matches in the patient name. Values > 1
	// rank name hits above matches in notes or history. Use 1.0 for no boost.
	NameBoost float64
	// Fuzzy enables typo-tolerant matching.
	Fuzzy bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2).
	// Default is 1 when Fuzzy is true.
	Fuzziness int
}

// Result is a single roster search hit.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// searchable lists the indexed text fields of a patient.
var searchable = []string{"id", "name", "condition", "room", "doctor", "history", "notes"}
