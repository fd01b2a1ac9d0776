package filters

import "github.com/pemistahl/lingua-go"

// LanguageGuard rejects posts written in a language the clinic cannot answer
// in. Detection runs before the text filters so obviously foreign posts never
// reach them. Texts too short or ambiguous to detect are allowed through.
type LanguageGuard struct {
	detector lingua.LanguageDetector
	allowed  map[lingua.Language]bool
}

func NewLanguageGuard() *LanguageGuard {
	languages := []lingua.Language{lingua.Russian, lingua.Kazakh, lingua.English}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()

	return &LanguageGuard{
		detector: detector,
		allowed: map[lingua.Language]bool{
			lingua.Russian: true,
			lingua.Kazakh:  true,
		},
	}
}

// Allows reports whether the text is in a language the bot replies in.
func (g *LanguageGuard) Allows(text string) bool {
	if text == "" {
		return true
	}

	language, exists := g.detector.DetectLanguageOf(text)
	if !exists {
		return true
	}

	return g.allowed[language]
}
