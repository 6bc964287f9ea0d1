package domain

// SolutionStep is one numbered step of a worked solution. Numbering is
// assigned by the model, not inferred from position.
type SolutionStep struct {
	StepNumber  int    `json:"stepNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StructuredAnswer is the validated tutoring response. Produced exactly once
// per successful request and immutable thereafter.
type StructuredAnswer struct {
	Subject           string         `json:"subject"`
	Topic             string         `json:"topic"`
	Difficulty        string         `json:"difficulty"`
	LanguageUsed      string         `json:"languageUsed"`
	SolutionSteps     []SolutionStep `json:"solutionSteps"`
	SimpleExplanation string         `json:"simpleExplanation"`
	ImportantFormulas []string       `json:"importantFormulas"`
	CommonMistakes    []string       `json:"commonMistakes"`
	Summary           string         `json:"summary"`
}

// SubjectNonEducational marks a refused out-of-scope query. The model is
// instructed to set it together with empty step/formula/mistake lists.
const SubjectNonEducational = "Non-Educational"

// IsRefusal reports whether the answer declined a non-educational query.
func (a *StructuredAnswer) IsRefusal() bool {
	return a.Subject == SubjectNonEducational
}

// Difficulty values with dedicated styling. The field itself stays an open
// string; unknown values fall back to DifficultyUnknown styling downstream.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "Easy"
	DifficultyMedium  Difficulty = "Medium"
	DifficultyHard    Difficulty = "Hard"
	DifficultyUnknown Difficulty = ""
)

// CanonicalDifficulty maps a free-form difficulty string onto the closed
// styling set, yielding DifficultyUnknown for anything else.
func CanonicalDifficulty(raw string) Difficulty {
	switch Difficulty(raw) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(raw)
	default:
		return DifficultyUnknown
	}
}
