package httpadapter

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lumen/internal/domain"
	"lumen/internal/ports"
	"lumen/internal/services/reports"
	"lumen/internal/services/scoring"
)

type productView struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Brand             *string   `json:"brand"`
	Description       *string   `json:"description"`
	ImageURL          *string   `json:"imageUrl"`
	TransparencyScore *int      `json:"transparencyScore"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		Brand:             p.Brand,
		Description:       p.Description,
		ImageURL:          p.ImageURL,
		TransparencyScore: p.TransparencyScore,
		CreatedAt:         p.CreatedAt,
	}
}

type responseView struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   *string   `json:"category"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponseViews(rs []domain.FormResponse) []responseView {
	out := make([]responseView, 0, len(rs))
	for _, r := range rs {
		out = append(out, responseView{
			ID:         r.ID,
			ProductID:  r.ProductID,
			QuestionID: r.QuestionID,
			Question:   r.Question,
			Answer:     r.Answer,
			Category:   r.Category,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Brand       *string `json:"brand"`
		Description *string `json:"description"`
		ImageURL    *string `json:"imageUrl"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product data")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 {
		writeError(w, http.StatusBadRequest, "Product name must be at least 2 characters")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "Please select a category")
		return
	}

	product, err := s.products.CreateProduct(r.Context(), ports.NewProduct{
		Name:        req.Name,
		Category:    strings.TrimSpace(req.Category),
		Brand:       req.Brand,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		s.log.Error("create product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"productId": product.ID,
		"product":   toProductView(product),
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.ListProducts(r.Context())
	if err != nil {
		s.log.Error("list products failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.log.Error("get product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, toProductView(product))
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	product, err := s.products.GetProduct(r.Context(), req.ProductID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.log.Error("get product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate questions")
		return
	}

	generated := s.questions.Generate(r.Context(), product.Name, product.Category, product.Brand, product.Description)
	writeJSON(w, http.StatusOK, map[string]any{"questions": generated})
}

func (s *Server) handleSubmitResponses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Responses []struct {
			QuestionID string  `json:"questionId"`
			Question   string  `json:"question"`
			Answer     string  `json:"answer"`
			Category   *string `json:"category"`
		} `json:"responses"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" || req.Responses == nil {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	batch := make([]ports.NewFormResponse, 0, len(req.Responses))
	scored := make([]scoring.Answer, 0, len(req.Responses))
	for _, resp := range req.Responses {
		if strings.TrimSpace(resp.Answer) == "" {
			writeError(w, http.StatusBadRequest, "Please provide an answer")
			return
		}
		batch = append(batch, ports.NewFormResponse{
			ProductID:  req.ProductID,
			QuestionID: resp.QuestionID,
			Question:   resp.Question,
			Answer:     resp.Answer,
			Category:   resp.Category,
		})
		answer := scoring.Answer{Question: resp.Question, Answer: resp.Answer}
		if resp.Category != nil {
			answer.Category = *resp.Category
		}
		scored = append(scored, answer)
	}

	saved, err := s.responses.CreateFormResponses(r.Context(), batch)
	if err != nil {
		s.log.Error("save responses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save responses")
		return
	}

	score := s.scoring.Score(r.Context(), scored)
	if err := s.products.UpdateProductScore(r.Context(), req.ProductID, score); err != nil {
		s.log.Error("attach score failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save responses")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"responses":         toResponseViews(saved),
		"transparencyScore": score,
	})
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := s.responses.GetResponsesByProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		s.log.Error("list responses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch responses")
		return
	}
	writeJSON(w, http.StatusOK, toResponseViews(responses))
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	report, err := s.reports.Generate(r.Context(), req.ProductID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.log.Error("generate report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reportId": report.ID,
		"report": map[string]any{
			"id":        report.ID,
			"productId": report.ProductID,
			"createdAt": report.CreatedAt,
		},
	})
}

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if s.cache != nil {
		if doc, ok, err := s.cache.Get(r.Context(), productID); err == nil && ok {
			serveReportDocument(w, doc)
			return
		} else if err != nil {
			s.log.Warn("report cache read failed", "error", err)
		}
	}

	product, err := s.products.GetProduct(r.Context(), productID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.log.Error("get product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	responses, err := s.responses.GetResponsesByProduct(r.Context(), productID)
	if err != nil {
		s.log.Error("list responses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	html, err := reports.Render(product, responses)
	if err != nil {
		s.log.Error("render report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	doc := ports.ReportDocument{Filename: reportFilename(product.Name), HTML: html}
	if s.cache != nil {
		if err := s.cache.Set(r.Context(), productID, doc); err != nil {
			s.log.Warn("report cache write failed", "error", err)
		}
	}
	serveReportDocument(w, doc)
}

func reportFilename(productName string) string {
	return filenameSanitizer.ReplaceAllString(productName, "-") + "-report.html"
}

func serveReportDocument(w http.ResponseWriter, doc ports.ReportDocument) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.HTML))
}
