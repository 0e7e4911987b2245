package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lumen/internal/domain"
	"lumen/internal/platform/logger"
	"lumen/internal/ports"
)

const systemPrompt = "You are an expert in product transparency, sustainability, and consumer health. " +
	"Generate thoughtful, specific questions that help assess product transparency."

type Service struct {
	gateway ports.TextGateway
	log     *logger.Logger
}

func New(gateway ports.TextGateway, log *logger.Logger) *Service {
	return &Service{gateway: gateway, log: log.With("service", "questions")}
}

// Generate produces 6-8 follow-up questions tailored to the product. It never
// fails: any gateway error, unparseable payload, or empty result degrades to
// the fixed fallback set so the workflow can always continue.
func (s *Service) Generate(ctx context.Context, name, category string, brand, description *string) []domain.Question {
	prompt := buildPrompt(name, category, brand, description)

	raw, err := s.gateway.Complete(ctx, systemPrompt, prompt, true)
	if err != nil {
		s.log.Warn("question generation failed, using fallback set", "error", err)
		return FallbackQuestions()
	}

	parsed, err := parseQuestions(raw)
	if err != nil {
		s.log.Warn("question response unparseable, using fallback set", "error", err)
		return FallbackQuestions()
	}
	return parsed
}

func buildPrompt(name, category string, brand, description *string) string {
	var b strings.Builder
	b.WriteString("You are an expert in product transparency and ethical consumerism. ")
	b.WriteString("Generate 6-8 intelligent, specific follow-up questions to gather comprehensive information about a product for a transparency report.\n\n")
	b.WriteString("Product Details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Category: %s\n", category)
	if brand != nil && *brand != "" {
		fmt.Fprintf(&b, "- Brand: %s\n", *brand)
	}
	if description != nil && *description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", *description)
	}
	b.WriteString(`
Generate questions that cover these areas:
1. Ingredients/Materials (what's in it?)
2. Sourcing & Supply Chain (where does it come from?)
3. Environmental Impact (how is it made and disposed of?)
4. Health & Safety (is it safe to use?)
5. Certifications & Standards (what third-party validations exist?)
6. Company Ethics (who makes it and what are their values?)

Make questions specific to this product category. Return a JSON array with this structure:
{
  "questions": [
    {
      "id": "unique-id",
      "question": "The question text",
      "category": "Ingredients" | "Sourcing" | "Environmental" | "Health" | "Certifications" | "Ethics",
      "tooltip": "Optional: Why we ask this question (1 sentence)"
    }
  ]
}`)
	return b.String()
}

// parseQuestions decodes the model payload. A payload that decodes but holds
// zero questions is treated as a parse failure so the caller falls back.
func parseQuestions(raw string) ([]domain.Question, error) {
	var payload struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode questions payload: %w", err)
	}
	out := payload.Questions[:0]
	for _, q := range payload.Questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		if q.Category == "" {
			q.Category = domain.CategoryGeneral
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("payload contained no questions")
	}
	return out, nil
}

// FallbackQuestions is the deterministic question set used whenever the
// gateway is unavailable or returns an unusable payload. The ids, text,
// categories, and tooltips are fixed; callers receive a fresh copy.
func FallbackQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "ingredients",
			Question: "What are the main ingredients or materials in this product?",
			Category: domain.CategoryIngredients,
			Tooltip:  "Understanding what's in the product helps assess safety and quality",
		},
		{
			ID:       "sourcing",
			Question: "Where are the ingredients/materials sourced from?",
			Category: domain.CategorySourcing,
			Tooltip:  "Supply chain transparency is key to ethical consumption",
		},
		{
			ID:       "certifications",
			Question: "Does this product have any certifications (organic, fair trade, etc.)?",
			Category: domain.CategoryCertifications,
			Tooltip:  "Third-party certifications validate ethical and quality claims",
		},
		{
			ID:       "environmental",
			Question: "What environmental practices does the manufacturer follow?",
			Category: domain.CategoryEnvironmental,
			Tooltip:  "Environmental impact affects sustainability",
		},
		{
			ID:       "packaging",
			Question: "What type of packaging is used and is it recyclable?",
			Category: domain.CategoryEnvironmental,
			Tooltip:  "Packaging waste contributes significantly to environmental impact",
		},
	}
}
