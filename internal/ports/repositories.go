package ports

import (
	"context"

	"lumen/internal/domain"
)

// NewProduct carries the fields a caller supplies when creating a product.
// The store assigns the id and created-at timestamp.
type NewProduct struct {
	Name        string
	Category    string
	Brand       *string
	Description *string
	ImageURL    *string
}

// NewFormResponse is one answered question to persist against a product.
type NewFormResponse struct {
	ProductID  string
	QuestionID string
	Question   string
	Answer     string
	Category   *string
}

// ProductRepository stores and fetches products.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p NewProduct) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProductScore(ctx context.Context, id string, score int) error
}

// ResponseRepository persists answered-question batches.
type ResponseRepository interface {
	CreateFormResponses(ctx context.Context, responses []NewFormResponse) ([]domain.FormResponse, error)
	GetResponsesByProduct(ctx context.Context, productID string) ([]domain.FormResponse, error)
}

// ReportRepository stores assembled report payloads.
type ReportRepository interface {
	CreateReport(ctx context.Context, productID string, payload []byte) (domain.Report, error)
	GetReportByProduct(ctx context.Context, productID string) (domain.Report, error)
}
