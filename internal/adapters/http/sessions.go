package httpadapter

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumen/internal/workflow"
)

// The session endpoints expose the workflow coordinator: one session walks a
// product submission through ProductInfo -> Questions -> Review and ends with
// report generation. Step-local failures return an error without moving the
// session, so clients can retry with their input intact. Completed sessions
// are evicted from the registry; the final response carries their last state.

type sessionView struct {
	ID        string            `json:"id"`
	Step      workflow.Step     `json:"step"`
	Product   *productView      `json:"product,omitempty"`
	Questions []questionView    `json:"questions,omitempty"`
	Answers   map[string]string `json:"answers"`
	ReportID  string            `json:"reportId,omitempty"`
}

type questionView struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
	Tooltip  string `json:"tooltip,omitempty"`
}

func toSessionView(snap workflow.Snapshot) sessionView {
	view := sessionView{
		ID:      snap.ID,
		Step:    snap.Step,
		Answers: snap.Answers,
	}
	if snap.Product != nil {
		p := toProductView(*snap.Product)
		view.Product = &p
	}
	for _, q := range snap.Questions {
		view.Questions = append(view.Questions, questionView{
			ID:       q.ID,
			Question: q.Question,
			Category: q.Category,
			Tooltip:  q.Tooltip,
		})
	}
	if snap.Report != nil {
		view.ReportID = snap.Report.ID
	}
	return view
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	sess, ok := s.coordinator.Session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return sess, true
}

// writeWorkflowError maps coordinator error types onto HTTP statuses.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	var validation *workflow.ValidationError
	var unanswered *workflow.UnansweredError
	var transition *workflow.TransitionError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &unanswered):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "Please answer all questions",
			"unanswered": unanswered.Count,
		})
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, transition.Error())
	default:
		s.log.Error("workflow step failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.coordinator.NewSession()
	writeJSON(w, http.StatusOK, toSessionView(sess.Snapshot()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(sess.Snapshot()))
}

func (s *Server) handleSessionProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Brand       *string `json:"brand"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product data")
		return
	}
	err := s.coordinator.SubmitProduct(r.Context(), sess, workflow.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		Description: req.Description,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(sess.Snapshot()))
}

func (s *Server) handleSessionAnswers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	score, err := s.coordinator.SubmitAnswers(r.Context(), sess, req.Answers)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":           toSessionView(sess.Snapshot()),
		"transparencyScore": score,
	})
}

func (s *Server) handleSessionBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.coordinator.Back(sess); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(sess.Snapshot()))
}

func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	report, err := s.coordinator.GenerateReport(r.Context(), sess)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reportId": report.ID,
		"session":  toSessionView(sess.Snapshot()),
	})
}
