package domain

import "time"

// Core domain models used internally. API request/response shapes live in the
// HTTP adapter; keep these decoupled where helpful.

// Question categories used to group generated questions and report sections.
const (
	CategoryIngredients    = "Ingredients"
	CategorySourcing       = "Sourcing"
	CategoryEnvironmental  = "Environmental"
	CategoryHealth         = "Health"
	CategoryCertifications = "Certifications"
	CategoryEthics         = "Ethics"
	CategoryGeneral        = "General"
)

// Product is a submitted product awaiting or holding a transparency score.
type Product struct {
	ID                string
	Name              string
	Category          string
	Brand             *string
	Description       *string
	ImageURL          *string
	TransparencyScore *int // nil until scoring completes
	CreatedAt         time.Time
}

// Question is a single follow-up question produced by the generator.
// Immutable once created; ID is unique within its generation batch.
type Question struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
	Tooltip  string `json:"tooltip,omitempty"`
}

// FormResponse is an answered question persisted against a product.
type FormResponse struct {
	ID         string
	ProductID  string
	QuestionID string
	Question   string
	Answer     string
	Category   *string
	CreatedAt  time.Time
}

// Report is a persisted report payload for a product. Payload holds the
// assembled product + responses snapshot as JSON; the rendered HTML document
// is derived from the same inputs and never stored here.
type Report struct {
	ID        string
	ProductID string
	Payload   []byte
	PDFURL    *string
	CreatedAt time.Time
}

// CategoryScore is one row of the derived category breakdown.
type CategoryScore struct {
	Category string
	Score    int
}
