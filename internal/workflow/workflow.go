// Package workflow drives a product submission through its three steps:
// ProductInfo -> Questions -> Review, then report generation as the terminal
// action. Step data is held in an explicit accumulator (the Session) so the
// state machine is testable without any rendering layer. Moving backward
// discards nothing; a failed external call leaves the session exactly where
// it was so the caller can retry.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lumen/internal/domain"
	"lumen/internal/platform/logger"
	"lumen/internal/ports"
	"lumen/internal/services/questions"
	"lumen/internal/services/reports"
	"lumen/internal/services/scoring"
)

// Step identifies the current position of a session in the workflow.
type Step string

const (
	StepProductInfo Step = "product_info"
	StepQuestions   Step = "questions"
	StepReview      Step = "review"
	StepDone        Step = "done"
)

// ProductInput is the step-1 submission.
type ProductInput struct {
	Name        string
	Category    string
	Brand       *string
	Description *string
}

// ValidationError reports malformed step input. It is raised before any
// external call and never changes session state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// UnansweredError rejects a Questions submission that left questions blank.
type UnansweredError struct {
	Count int
}

func (e *UnansweredError) Error() string {
	return fmt.Sprintf("%d question(s) remaining", e.Count)
}

// TransitionError reports an operation attempted from the wrong step.
type TransitionError struct {
	From Step
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from step %q", e.Op, e.From)
}

// Session is the accumulator for one workflow instance. All previously
// entered values survive backward and forward transitions.
type Session struct {
	ID string

	mu        sync.Mutex
	step      Step
	product   *domain.Product
	questions []domain.Question
	answers   map[string]string // question id -> answer, retained across steps
	report    *domain.Report
}

// Snapshot is a read-only view of a session for callers that render state.
type Snapshot struct {
	ID        string
	Step      Step
	Product   *domain.Product
	Questions []domain.Question
	Answers   map[string]string
	Report    *domain.Report
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.ID,
		Step:      s.step,
		Questions: append([]domain.Question(nil), s.questions...),
		Answers:   make(map[string]string, len(s.answers)),
	}
	// Copy the product and report values; later steps mutate the live product
	// (SubmitAnswers attaches the score) and a snapshot is read without the
	// session lock.
	if s.product != nil {
		p := *s.product
		snap.Product = &p
	}
	if s.report != nil {
		r := *s.report
		snap.Report = &r
	}
	for id, a := range s.answers {
		snap.Answers[id] = a
	}
	return snap
}

// Coordinator sequences the workflow steps over the external collaborators
// and keeps the registry of live sessions. Independent sessions share nothing
// but the store.
type Coordinator struct {
	products  ports.ProductRepository
	responses ports.ResponseRepository
	questions *questions.Service
	scoring   *scoring.Service
	reports   *reports.Service
	log       *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewCoordinator(
	products ports.ProductRepository,
	responses ports.ResponseRepository,
	questionSvc *questions.Service,
	scoringSvc *scoring.Service,
	reportSvc *reports.Service,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		products:  products,
		responses: responses,
		questions: questionSvc,
		scoring:   scoringSvc,
		reports:   reportSvc,
		log:       log.With("service", "workflow"),
		sessions:  map[string]*Session{},
	}
}

// NewSession registers a fresh session at the ProductInfo step.
func (c *Coordinator) NewSession() *Session {
	s := &Session{
		ID:      uuid.NewString(),
		step:    StepProductInfo,
		answers: map[string]string{},
	}
	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()
	return s
}

// Session looks up a live session by id.
func (c *Coordinator) Session(id string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	return s, ok
}

// SubmitProduct handles ProductInfo -> Questions. The product is persisted
// first; the question generator then populates the question list (it cannot
// fail, see the questions service). A store failure is surfaced as a
// retryable error and the session stays at ProductInfo with its input intact.
func (c *Coordinator) SubmitProduct(ctx context.Context, s *Session, in ProductInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepProductInfo {
		return &TransitionError{From: s.step, Op: "submit product"}
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if len(in.Name) < 2 {
		return &ValidationError{Msg: "product name must be at least 2 characters"}
	}
	if in.Category == "" {
		return &ValidationError{Msg: "please select a category"}
	}

	product, err := c.products.CreateProduct(ctx, ports.NewProduct{
		Name:        in.Name,
		Category:    in.Category,
		Brand:       in.Brand,
		Description: in.Description,
	})
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.product = &product

	// A session that went back to ProductInfo keeps its generated questions
	// and entered answers; regenerating would orphan the answers by id.
	if len(s.questions) == 0 {
		s.questions = c.questions.Generate(ctx, product.Name, product.Category, product.Brand, product.Description)
	}

	s.step = StepQuestions
	c.log.Info("session entered questions step", "session_id", s.ID, "product_id", product.ID, "questions", len(s.questions))
	return nil
}

// SubmitAnswers handles Questions -> Review. Every question needs a non-empty
// trimmed answer; otherwise the submission is rejected with the exact count
// of unanswered questions and nothing changes. On success the batch is
// persisted, scored synchronously, and the score attached to the product
// before the step advances.
func (c *Coordinator) SubmitAnswers(ctx context.Context, s *Session, answers map[string]string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepQuestions {
		return 0, &TransitionError{From: s.step, Op: "submit answers"}
	}

	// Merge before validating so partial input survives a rejection.
	for id, a := range answers {
		s.answers[id] = a
	}

	unanswered := 0
	for _, q := range s.questions {
		if strings.TrimSpace(s.answers[q.ID]) == "" {
			unanswered++
		}
	}
	if unanswered > 0 {
		return 0, &UnansweredError{Count: unanswered}
	}

	batch := make([]ports.NewFormResponse, 0, len(s.questions))
	scored := make([]scoring.Answer, 0, len(s.questions))
	for _, q := range s.questions {
		category := q.Category
		batch = append(batch, ports.NewFormResponse{
			ProductID:  s.product.ID,
			QuestionID: q.ID,
			Question:   q.Question,
			Answer:     s.answers[q.ID],
			Category:   &category,
		})
		scored = append(scored, scoring.Answer{
			Question: q.Question,
			Answer:   s.answers[q.ID],
			Category: q.Category,
		})
	}
	if _, err := c.responses.CreateFormResponses(ctx, batch); err != nil {
		return 0, fmt.Errorf("persist answers: %w", err)
	}

	score := c.scoring.Score(ctx, scored)
	if err := c.products.UpdateProductScore(ctx, s.product.ID, score); err != nil {
		return 0, fmt.Errorf("attach score: %w", err)
	}
	s.product.TransparencyScore = &score

	s.step = StepReview
	c.log.Info("session entered review step", "session_id", s.ID, "product_id", s.product.ID, "score", score)
	return score, nil
}

// GenerateReport handles the terminal Review submission. On success the
// session is done, evicted from the registry, and no further transition
// exists; callers holding the session can still snapshot it.
func (c *Coordinator) GenerateReport(ctx context.Context, s *Session) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepReview {
		return domain.Report{}, &TransitionError{From: s.step, Op: "generate report"}
	}
	report, err := c.reports.Generate(ctx, s.product.ID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("generate report: %w", err)
	}
	s.report = &report
	s.step = StepDone

	c.mu.Lock()
	delete(c.sessions, s.ID)
	c.mu.Unlock()

	c.log.Info("session completed", "session_id", s.ID, "report_id", report.ID)
	return report, nil
}

// Back moves one step backward. Review -> Questions and
// Questions -> ProductInfo are the only backward transitions; both retain
// every previously entered value.
func (c *Coordinator) Back(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepReview:
		s.step = StepQuestions
	case StepQuestions:
		s.step = StepProductInfo
	default:
		return &TransitionError{From: s.step, Op: "go back"}
	}
	return nil
}
