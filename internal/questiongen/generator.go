package questiongen

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/exampulse/exampulse/internal/assessment"
)

// attemptProfile is one AI generation try. The second run trades temperature
// for budget to coax stricter JSON out of the model.
type attemptProfile struct {
	temperature float64
	maxTokens   int
}

var attemptProfiles = []attemptProfile{
	{temperature: 0.4, maxTokens: 8000},
	{temperature: 0.2, maxTokens: 10000},
}

// Synthesizer produces validated, graded question sets, preferring the
// generative provider and falling back to the template bank. It satisfies
// assessment.Synthesizer.
type Synthesizer struct {
	provider Provider
}

func NewSynthesizer(provider Provider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// Synthesize returns a frozen-ready question set and its provenance.
// Network and parsing failures inside one attempt are swallowed; only AI
// exhaustion with RequireAI set surfaces an error.
func (s *Synthesizer) Synthesize(ctx context.Context, req assessment.SynthesisRequest) ([]assessment.Question, string, error) {
	if req.Count <= 0 {
		return []assessment.Question{}, assessment.SourceNone, nil
	}
	if req.Difficulty == "" {
		req.Difficulty = "Medium"
	}

	if questions := s.generateWithAI(ctx, req); questions != nil {
		return questions, assessment.SourceAI, nil
	}

	if req.RequireAI {
		return nil, assessment.SourceNone,
			assessment.Unavailablef("ai question generation failed for this paper, please try again")
	}

	return templateSet(req.Subject, req.Count, req.Difficulty), assessment.SourceTemplate, nil
}

func (s *Synthesizer) generateWithAI(ctx context.Context, req assessment.SynthesisRequest) []assessment.Question {
	if s.provider == nil {
		return nil
	}
	prompt := buildPrompt(req)

	for _, profile := range attemptProfiles {
		raw, err := s.provider.Generate(ctx, prompt, GenerateOpts{
			Temperature: profile.temperature,
			MaxTokens:   profile.maxTokens,
			JSONMode:    true,
		})
		if err != nil {
			log.Printf("questiongen: ai attempt failed: %v", err)
			continue
		}

		parsed, ok := decodeLoose(raw)
		if !ok {
			continue
		}
		if questions := normalizeCandidates(parsed, req.Subject, req.Count, req.Difficulty); questions != nil {
			return questions
		}
	}
	return nil
}

func buildPrompt(req assessment.SynthesisRequest) string {
	var b strings.Builder
	b.WriteString("Role: JEE Question Setter. Task: JSON Questions.\n")
	fmt.Fprintf(&b, "Subject: %s. ", req.Subject)
	if req.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	}
	fmt.Fprintf(&b, "Difficulty: %s. Count: %d.\n\n", req.Difficulty, req.Count)
	b.WriteString(`Output: { "questions": [ { "text": "", "options": ["", "", "", ""], "correct": 0-3, "explanation": "" } ] }` + "\n")
	b.WriteString("Note: No markdown. Accurate and unique questions.")
	return b.String()
}
