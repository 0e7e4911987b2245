package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lumen/internal/domain"
	"lumen/internal/platform/logger"
	"lumen/internal/ports"
	"lumen/internal/services/questions"
	"lumen/internal/services/reports"
	"lumen/internal/services/scoring"
	"lumen/internal/workflow"
)

type fakeGateway struct {
	reply string
	err   error
}

func (g *fakeGateway) Complete(ctx context.Context, system, user string, structured bool) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type memStore struct {
	seq             int
	getProductCalls int
	products        map[string]domain.Product
	responses       map[string][]domain.FormResponse
	reports         map[string]domain.Report
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]domain.Product{},
		responses: map[string][]domain.FormResponse{},
		reports:   map[string]domain.Report{},
	}
}

func (m *memStore) CreateProduct(ctx context.Context, p ports.NewProduct) (domain.Product, error) {
	m.seq++
	product := domain.Product{
		ID:          fmt.Sprintf("prod-%d", m.seq),
		Name:        p.Name,
		Category:    p.Category,
		Brand:       p.Brand,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   time.Now(),
	}
	m.products[product.ID] = product
	return product, nil
}

func (m *memStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	m.getProductCalls++
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, ports.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) UpdateProductScore(ctx context.Context, id string, score int) error {
	p, ok := m.products[id]
	if !ok {
		return ports.ErrNotFound
	}
	p.TransparencyScore = &score
	m.products[id] = p
	return nil
}

func (m *memStore) CreateFormResponses(ctx context.Context, rs []ports.NewFormResponse) ([]domain.FormResponse, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	var out []domain.FormResponse
	for _, r := range rs {
		m.seq++
		out = append(out, domain.FormResponse{
			ID:         fmt.Sprintf("resp-%d", m.seq),
			ProductID:  r.ProductID,
			QuestionID: r.QuestionID,
			Question:   r.Question,
			Answer:     r.Answer,
			Category:   r.Category,
			CreatedAt:  time.Now(),
		})
	}
	m.responses[rs[0].ProductID] = out
	return out, nil
}

func (m *memStore) GetResponsesByProduct(ctx context.Context, productID string) ([]domain.FormResponse, error) {
	return m.responses[productID], nil
}

func (m *memStore) CreateReport(ctx context.Context, productID string, payload []byte) (domain.Report, error) {
	m.seq++
	report := domain.Report{
		ID:        fmt.Sprintf("report-%d", m.seq),
		ProductID: productID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	m.reports[productID] = report
	return report, nil
}

func (m *memStore) GetReportByProduct(ctx context.Context, productID string) (domain.Report, error) {
	r, ok := m.reports[productID]
	if !ok {
		return domain.Report{}, ports.ErrNotFound
	}
	return r, nil
}

type fakeCache struct {
	docs map[string]ports.ReportDocument
	gets int
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{docs: map[string]ports.ReportDocument{}}
}

func (f *fakeCache) Get(ctx context.Context, productID string) (ports.ReportDocument, bool, error) {
	f.gets++
	doc, ok := f.docs[productID]
	return doc, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, productID string, doc ports.ReportDocument) error {
	f.sets++
	f.docs[productID] = doc
	return nil
}

func newTestServer(store *memStore, gw ports.TextGateway, cache ports.ReportCache) *httptest.Server {
	log := logger.NewNop()
	questionSvc := questions.New(gw, log)
	scoringSvc := scoring.New(gw, log)
	reportSvc := reports.New(store, store, store)
	coordinator := workflow.NewCoordinator(store, store, questionSvc, scoringSvc, reportSvc, log)
	srv := New(store, store, questionSvc, scoringSvc, reportSvc, coordinator, cache, log)
	return httptest.NewServer(srv.Routes())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateProduct(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/products", map[string]any{
		"name":     "Organic Green Tea",
		"category": "Food & Beverages",
		"brand":    "LeafCo",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		ProductID string `json:"productId"`
		Product   struct {
			Name  string `json:"name"`
			Brand string `json:"brand"`
		} `json:"product"`
	}
	decodeBody(t, resp, &body)
	if body.ProductID == "" {
		t.Error("response missing productId")
	}
	if body.Product.Name != "Organic Green Tea" || body.Product.Brand != "LeafCo" {
		t.Errorf("product = %+v", body.Product)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	cases := []map[string]any{
		{"name": "X", "category": "Food & Beverages"},
		{"name": "Organic Green Tea", "category": ""},
		{"name": "", "category": ""},
	}
	for _, body := range cases {
		resp := postJSON(t, ts.URL+"/api/products", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status for %v = %d, want 400", body, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/products/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGenerateQuestions_FallbackOnGatewayFailure(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(store, &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	product, _ := store.CreateProduct(context.Background(), ports.NewProduct{Name: "Tea", Category: "Food & Beverages"})

	resp := postJSON(t, ts.URL+"/api/questions/generate", map[string]string{"productId": product.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Questions []domain.Question `json:"questions"`
	}
	decodeBody(t, resp, &body)
	if len(body.Questions) != 5 {
		t.Fatalf("got %d questions, want the 5 fallback questions", len(body.Questions))
	}
	if body.Questions[0].ID != "ingredients" {
		t.Errorf("first fallback id = %q, want ingredients", body.Questions[0].ID)
	}
}

func TestGenerateQuestions_UnknownProduct(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/questions/generate", map[string]string{"productId": "nope"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmitResponses_ScoresAndAttaches(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(store, &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	product, _ := store.CreateProduct(context.Background(), ports.NewProduct{Name: "Tea", Category: "Food & Beverages"})

	resp := postJSON(t, ts.URL+"/api/responses", map[string]any{
		"productId": product.ID,
		"responses": []map[string]any{
			{"questionId": "q1", "question": "What is in it?", "answer": strings.Repeat("a", 40), "category": "Ingredients"},
			{"questionId": "q2", "question": "Where from?", "answer": strings.Repeat("a", 60), "category": "Sourcing"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Success           bool           `json:"success"`
		Responses         []responseView `json:"responses"`
		TransparencyScore int            `json:"transparencyScore"`
	}
	decodeBody(t, resp, &body)
	if !body.Success {
		t.Error("success = false")
	}
	if body.TransparencyScore != 50 { // fallback: avg(40, 60)
		t.Errorf("transparencyScore = %d, want 50", body.TransparencyScore)
	}
	if len(body.Responses) != 2 {
		t.Errorf("saved %d responses, want 2", len(body.Responses))
	}
	stored := store.products[product.ID]
	if stored.TransparencyScore == nil || *stored.TransparencyScore != 50 {
		t.Errorf("stored score = %v, want 50", stored.TransparencyScore)
	}
}

func TestSubmitResponses_RejectsEmptyAnswer(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(store, &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	product, _ := store.CreateProduct(context.Background(), ports.NewProduct{Name: "Tea", Category: "Food & Beverages"})

	resp := postJSON(t, ts.URL+"/api/responses", map[string]any{
		"productId": product.ID,
		"responses": []map[string]any{
			{"questionId": "q1", "question": "What is in it?", "answer": "   "},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
	if len(store.responses) != 0 {
		t.Error("rejected submission must not persist responses")
	}
}

func TestDownloadReport(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(store, &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	product, _ := store.CreateProduct(context.Background(), ports.NewProduct{Name: "Organic Green Tea", Category: "Food & Beverages"})
	score := 20
	_ = store.UpdateProductScore(context.Background(), product.ID, score)
	category := domain.CategoryIngredients
	_, _ = store.CreateFormResponses(context.Background(), []ports.NewFormResponse{
		{ProductID: product.ID, QuestionID: "q1", Question: "What is in it?", Answer: strings.Repeat("a", 20), Category: &category},
	})

	resp, err := http.Get(ts.URL + "/api/reports/" + product.ID + "/pdf")
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "Organic-Green-Tea-report.html") {
		t.Errorf("Content-Disposition = %q", disposition)
	}

	var html bytes.Buffer
	if _, err := html.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{"Organic Green Tea", "20%", "What is in it?"} {
		if !strings.Contains(html.String(), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestDownloadReport_CacheHitSkipsStore(t *testing.T) {
	store := newMemStore()
	cache := newFakeCache()
	ts := newTestServer(store, &fakeGateway{err: errors.New("down")}, cache)
	defer ts.Close()

	product, _ := store.CreateProduct(context.Background(), ports.NewProduct{Name: "Organic Green Tea", Category: "Food & Beverages"})

	first, err := http.Get(ts.URL + "/api/reports/" + product.ID + "/pdf")
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	var firstBody bytes.Buffer
	_, _ = firstBody.ReadFrom(first.Body)
	first.Body.Close()
	if cache.sets != 1 {
		t.Fatalf("cache writes after first download = %d, want 1", cache.sets)
	}

	store.getProductCalls = 0
	second, err := http.Get(ts.URL + "/api/reports/" + product.ID + "/pdf")
	if err != nil {
		t.Fatalf("GET cached report: %v", err)
	}
	defer second.Body.Close()

	if store.getProductCalls != 0 {
		t.Errorf("cache hit touched the store %d times, want 0", store.getProductCalls)
	}
	disposition := second.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "Organic-Green-Tea-report.html") {
		t.Errorf("cached Content-Disposition = %q", disposition)
	}
	var secondBody bytes.Buffer
	_, _ = secondBody.ReadFrom(second.Body)
	if firstBody.String() != secondBody.String() {
		t.Error("cached document differs from the rendered one")
	}
}

func TestDownloadReport_NotFound(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/reports/nope/pdf")
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSessionFlow(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(store, &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/sessions", nil)
	var created sessionView
	decodeBody(t, resp, &created)
	if created.Step != workflow.StepProductInfo {
		t.Fatalf("new session step = %q, want product_info", created.Step)
	}

	base := ts.URL + "/api/sessions/" + created.ID
	resp = postJSON(t, base+"/product", map[string]string{
		"name":     "Organic Green Tea",
		"category": "Food & Beverages",
	})
	var afterProduct sessionView
	decodeBody(t, resp, &afterProduct)
	if afterProduct.Step != workflow.StepQuestions {
		t.Fatalf("step = %q, want questions", afterProduct.Step)
	}
	if len(afterProduct.Questions) != 5 {
		t.Fatalf("got %d questions, want 5 fallback questions", len(afterProduct.Questions))
	}

	// Partial answers are rejected with the unanswered count.
	resp = postJSON(t, base+"/answers", map[string]any{
		"answers": map[string]string{"ingredients": "tea leaves only"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("partial answers status = %d, want 400", resp.StatusCode)
	}
	var rejection struct {
		Unanswered int `json:"unanswered"`
	}
	decodeBody(t, resp, &rejection)
	if rejection.Unanswered != 4 {
		t.Errorf("unanswered = %d, want 4", rejection.Unanswered)
	}

	answers := map[string]string{}
	for _, q := range afterProduct.Questions {
		answers[q.ID] = strings.Repeat("a", 20)
	}
	resp = postJSON(t, base+"/answers", map[string]any{"answers": answers})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answers status = %d, want 200", resp.StatusCode)
	}
	var afterAnswers struct {
		Session           sessionView `json:"session"`
		TransparencyScore int         `json:"transparencyScore"`
	}
	decodeBody(t, resp, &afterAnswers)
	if afterAnswers.Session.Step != workflow.StepReview {
		t.Errorf("step = %q, want review", afterAnswers.Session.Step)
	}
	if afterAnswers.TransparencyScore != 20 {
		t.Errorf("transparencyScore = %d, want 20", afterAnswers.TransparencyScore)
	}

	// Back to questions keeps the answers.
	resp = postJSON(t, base+"/back", nil)
	var afterBack sessionView
	decodeBody(t, resp, &afterBack)
	if afterBack.Step != workflow.StepQuestions {
		t.Errorf("step after back = %q, want questions", afterBack.Step)
	}
	if len(afterBack.Answers) != 5 {
		t.Errorf("answers after back = %d, want 5", len(afterBack.Answers))
	}

	// Forward again, then finish.
	resp = postJSON(t, base+"/answers", map[string]any{"answers": map[string]string{}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resubmit status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, base+"/report", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d, want 200", resp.StatusCode)
	}
	var finished struct {
		ReportID string      `json:"reportId"`
		Session  sessionView `json:"session"`
	}
	decodeBody(t, resp, &finished)
	if finished.ReportID == "" {
		t.Error("missing reportId")
	}
	if finished.Session.Step != workflow.StepDone {
		t.Errorf("final step = %q, want done", finished.Session.Step)
	}

	// Completed sessions leave the registry.
	resp = postJSON(t, base+"/report", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("post-terminal report status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSession_NotFound(t *testing.T) {
	ts := newTestServer(newMemStore(), &fakeGateway{err: errors.New("down")}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/sessions/nope")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}
