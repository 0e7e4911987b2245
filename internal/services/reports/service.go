package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"lumen/internal/domain"
	"lumen/internal/ports"
)

// Service assembles and persists report payloads. Rendering is handled by the
// pure functions in render.go and Breakdown.
type Service struct {
	products  ports.ProductRepository
	responses ports.ResponseRepository
	reports   ports.ReportRepository
}

func New(products ports.ProductRepository, responses ports.ResponseRepository, reports ports.ReportRepository) *Service {
	return &Service{products: products, responses: responses, reports: reports}
}

// payload is the stored report snapshot: the product and its responses at
// generation time.
type payload struct {
	Product     payloadProduct    `json:"product"`
	Responses   []payloadResponse `json:"responses"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

type payloadProduct struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Brand             *string `json:"brand,omitempty"`
	Description       *string `json:"description,omitempty"`
	TransparencyScore *int    `json:"transparencyScore,omitempty"`
}

type payloadResponse struct {
	QuestionID string  `json:"questionId"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Category   *string `json:"category,omitempty"`
}

// Generate assembles the report payload for a product and persists it.
// Returns ports.ErrNotFound when the product does not exist.
func (s *Service) Generate(ctx context.Context, productID string) (domain.Report, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return domain.Report{}, err
	}
	responses, err := s.responses.GetResponsesByProduct(ctx, productID)
	if err != nil {
		return domain.Report{}, err
	}

	p := payload{
		Product: payloadProduct{
			ID:                product.ID,
			Name:              product.Name,
			Category:          product.Category,
			Brand:             product.Brand,
			Description:       product.Description,
			TransparencyScore: product.TransparencyScore,
		},
		GeneratedAt: time.Now().UTC(),
	}
	for _, r := range responses {
		p.Responses = append(p.Responses, payloadResponse{
			QuestionID: r.QuestionID,
			Question:   r.Question,
			Answer:     r.Answer,
			Category:   r.Category,
		})
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.Report{}, fmt.Errorf("marshal report payload: %w", err)
	}
	return s.reports.CreateReport(ctx, productID, raw)
}

// AnswerScore is the per-answer display heuristic used for the category
// breakdown: the answer length in characters, capped at 100. It applies to
// every report regardless of how the overall score was obtained.
func AnswerScore(answer string) float64 {
	score := float64(len(answer))
	if score > 100 {
		score = 100
	}
	return score
}

// Breakdown groups responses by category (missing category becomes General),
// scores each answer with AnswerScore, and averages per category, rounded to
// the nearest integer. Categories are returned in alphabetical order so the
// output is stable.
func Breakdown(responses []domain.FormResponse) []domain.CategoryScore {
	type agg struct {
		total float64
		count int
	}
	byCategory := map[string]*agg{}
	for _, r := range responses {
		category := domain.CategoryGeneral
		if r.Category != nil && *r.Category != "" {
			category = *r.Category
		}
		a := byCategory[category]
		if a == nil {
			a = &agg{}
			byCategory[category] = a
		}
		a.total += AnswerScore(r.Answer)
		a.count++
	}

	out := make([]domain.CategoryScore, 0, len(byCategory))
	for category, a := range byCategory {
		out = append(out, domain.CategoryScore{
			Category: category,
			Score:    int(math.Round(a.total / float64(a.count))),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
