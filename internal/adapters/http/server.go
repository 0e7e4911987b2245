package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumen/internal/platform/logger"
	"lumen/internal/ports"
	"lumen/internal/services/questions"
	"lumen/internal/services/reports"
	"lumen/internal/services/scoring"
	"lumen/internal/workflow"
)

// Server exposes the REST API: product CRUD, question generation, answer
// submission, report generation/download, and the workflow session endpoints.
type Server struct {
	products    ports.ProductRepository
	responses   ports.ResponseRepository
	questions   *questions.Service
	scoring     *scoring.Service
	reports     *reports.Service
	coordinator *workflow.Coordinator
	cache       ports.ReportCache // nil disables caching
	log         *logger.Logger
}

func New(
	products ports.ProductRepository,
	responses ports.ResponseRepository,
	questionSvc *questions.Service,
	scoringSvc *scoring.Service,
	reportSvc *reports.Service,
	coordinator *workflow.Coordinator,
	cache ports.ReportCache,
	log *logger.Logger,
) *Server {
	return &Server{
		products:    products,
		responses:   responses,
		questions:   questionSvc,
		scoring:     scoringSvc,
		reports:     reportSvc,
		coordinator: coordinator,
		cache:       cache,
		log:         log.With("service", "http"),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/products", s.handleCreateProduct)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Post("/questions/generate", s.handleGenerateQuestions)

		r.Post("/responses", s.handleSubmitResponses)
		r.Get("/responses/{productId}", s.handleListResponses)

		r.Post("/reports/generate", s.handleGenerateReport)
		r.Get("/reports/{productId}/pdf", s.handleDownloadReport)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/product", s.handleSessionProduct)
			r.Post("/{id}/answers", s.handleSessionAnswers)
			r.Post("/{id}/back", s.handleSessionBack)
			r.Post("/{id}/report", s.handleSessionReport)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
