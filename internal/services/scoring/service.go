package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"lumen/internal/platform/logger"
	"lumen/internal/ports"
)

const systemPrompt = "You are an expert in evaluating product transparency and ethical business practices."

// Answer is one question/answer pair submitted for scoring.
type Answer struct {
	Question string
	Answer   string
	Category string
}

type Service struct {
	gateway ports.TextGateway
	log     *logger.Logger
}

func New(gateway ports.TextGateway, log *logger.Logger) *Service {
	return &Service{gateway: gateway, log: log.With("service", "scoring")}
}

// Score judges an answer batch and returns a transparency score in [0,100].
// It never fails; the failure modes are layered:
//
//   - gateway error or unparseable payload: deterministic length heuristic
//   - payload parsed but no numeric score field: neutral midpoint of 50
//   - empty batch: 0, without calling the gateway
//
// The distinction between "model responded without a score" and "model did
// not respond" is deliberate and must be kept.
func (s *Service) Score(ctx context.Context, answers []Answer) int {
	if len(answers) == 0 {
		return 0
	}

	raw, err := s.gateway.Complete(ctx, systemPrompt, buildPrompt(answers), true)
	if err != nil {
		s.log.Warn("transparency scoring failed, using length heuristic", "error", err)
		return FallbackScore(answers)
	}

	score, err := parseScore(raw)
	if err != nil {
		s.log.Warn("score response unparseable, using length heuristic", "error", err)
		return FallbackScore(answers)
	}
	return score
}

func buildPrompt(answers []Answer) string {
	var b strings.Builder
	b.WriteString("As a product transparency expert, analyze these product responses and calculate an overall transparency score (0-100).\n\n")
	b.WriteString("Consider:\n")
	b.WriteString("- Completeness of information (how detailed are the answers?)\n")
	b.WriteString("- Transparency indicators (specific data, certifications, verifiable claims)\n")
	b.WriteString("- Red flags (vague answers, missing critical info, contradictions)\n\n")
	b.WriteString("Responses:\n")
	for i, a := range answers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s", i+1, a.Question, a.Answer)
	}
	b.WriteString("\n\nReturn JSON: { \"score\": number (0-100), \"reasoning\": \"brief explanation\" }")
	return b.String()
}

// parseScore decodes the model payload. A decodable payload with a missing or
// non-numeric score field degrades to the neutral midpoint rather than the
// length heuristic; an undecodable payload is an error for the caller.
func parseScore(raw string) (int, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return 0, fmt.Errorf("decode score payload: %w", err)
	}
	score := 50.0
	if v, ok := payload["score"].(float64); ok {
		score = v
	}
	return clamp(int(math.Round(score))), nil
}

// FallbackScore is the deterministic heuristic used when the gateway cannot
// produce a score: the average answer length in characters, capped at 100.
func FallbackScore(answers []Answer) int {
	if len(answers) == 0 {
		return 0
	}
	total := 0
	for _, a := range answers {
		total += len(a.Answer)
	}
	avg := float64(total) / float64(len(answers))
	score := int(math.Round(avg))
	if score > 100 {
		score = 100
	}
	return score
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
