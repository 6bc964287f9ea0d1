package domain

// SessionStatus is the single per-session request state. Success and Failed
// are transient display states; a new submission collapses them back through
// AwaitingResponse, so the session is reusable indefinitely.
type SessionStatus string

const (
	StatusIdle             SessionStatus = "idle"
	StatusAwaitingResponse SessionStatus = "awaiting_response"
	StatusSuccess          SessionStatus = "success"
	StatusFailed           SessionStatus = "failed"
)

// Language is the explanation language requested from the tutor.
type Language string

const (
	LanguageHinglish  Language = "Hinglish"
	LanguageEnglish   Language = "English"
	LanguageHindi     Language = "Hindi"
	LanguageBengali   Language = "Bengali"
	LanguageMarathi   Language = "Marathi"
	LanguageTelugu    Language = "Telugu"
	LanguageTamil     Language = "Tamil"
	LanguageGujarati  Language = "Gujarati"
	LanguageKannada   Language = "Kannada"
	LanguageMalayalam Language = "Malayalam"
	LanguagePunjabi   Language = "Punjabi"
)

// Languages lists every supported explanation language.
func Languages() []Language {
	return []Language{
		LanguageHinglish, LanguageEnglish, LanguageHindi, LanguageBengali,
		LanguageMarathi, LanguageTelugu, LanguageTamil, LanguageGujarati,
		LanguageKannada, LanguageMalayalam, LanguagePunjabi,
	}
}

// IsValid reports whether l is one of the supported languages.
func (l Language) IsValid() bool {
	for _, known := range Languages() {
		if l == known {
			return true
		}
	}
	return false
}

// StudyMode selects the pedagogical shape of the answer.
type StudyMode string

const (
	ModeSolve StudyMode = "SOLVE"
	ModeELI5  StudyMode = "ELI5"
	ModeNotes StudyMode = "NOTES"
	ModeExam  StudyMode = "EXAM"
	ModeMCQ   StudyMode = "MCQ"
)

// StudyModes lists every supported pedagogical mode.
func StudyModes() []StudyMode {
	return []StudyMode{ModeSolve, ModeELI5, ModeNotes, ModeExam, ModeMCQ}
}

// IsValid reports whether m is one of the supported modes.
func (m StudyMode) IsValid() bool {
	switch m {
	case ModeSolve, ModeELI5, ModeNotes, ModeExam, ModeMCQ:
		return true
	default:
		return false
	}
}
