package content

import "strings"

// LanguageUnknown is the sentinel a detector returns when it has no confident
// answer. Callers never tag a block with it.
const LanguageUnknown = "Unknown"

// LanguageDetector guesses the programming language of a code snippet. The
// detection algorithm is an external collaborator; implementations may fail,
// and callers must tolerate errors.
type LanguageDetector interface {
	Detect(source string) (string, error)
}

// keywordDetector is a small built-in detector so the service runs without an
// external detection backend. It scores a handful of unambiguous keywords.
type keywordDetector struct{}

// NewKeywordDetector returns the built-in heuristic detector.
func NewKeywordDetector() LanguageDetector {
	return keywordDetector{}
}

var keywordHints = map[string][]string{
	"Go":         {"func ", "package ", ":= ", "chan ", "go func"},
	"JavaScript": {"const ", "=> ", "console.log", "function ", "var "},
	"Python":     {"def ", "import ", "elif ", "print(", "self."},
	"Rust":       {"fn ", "let mut ", "impl ", "match ", "::<"},
	"Ruby":       {"def ", "end\n", "puts ", "require '", "do |"},
	"SQL":        {"select ", "insert into", "from ", "where ", "join "},
}

func (keywordDetector) Detect(source string) (string, error) {
	lowered := strings.ToLower(source)
	best, bestScore := LanguageUnknown, 0
	for language, hints := range keywordHints {
		score := 0
		for _, hint := range hints {
			if strings.Contains(lowered, strings.ToLower(hint)) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = language, score
		}
	}
	if bestScore < 2 {
		return LanguageUnknown, nil
	}
	return best, nil
}
