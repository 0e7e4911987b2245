package reports

import (
	"fmt"
	"html/template"
	"strings"

	"lumen/internal/domain"
)

// Render produces the self-contained HTML transparency report for a product
// and its answered questions. It is a pure function of its inputs: the same
// product and responses always render the same document.
func Render(product domain.Product, responses []domain.FormResponse) (string, error) {
	type responseView struct {
		Question string
		Answer   string
		Category string
	}
	data := struct {
		Name        string
		Brand       string
		Category    string
		Description string
		Score       string
		HasScore    bool
		Breakdown   []domain.CategoryScore
		Responses   []responseView
		GeneratedOn string
		ReportID    string
	}{
		Name:        product.Name,
		Category:    product.Category,
		Breakdown:   Breakdown(responses),
		GeneratedOn: product.CreatedAt.Format("January 2, 2006"),
		ReportID:    product.ID,
	}
	if product.Brand != nil {
		data.Brand = *product.Brand
	}
	if product.Description != nil {
		data.Description = *product.Description
	}
	if product.TransparencyScore != nil {
		data.HasScore = true
		data.Score = fmt.Sprintf("%d%%", *product.TransparencyScore)
	} else {
		data.Score = "N/A"
	}
	for _, r := range responses {
		view := responseView{Question: r.Question, Answer: r.Answer}
		if r.Category != nil {
			view.Category = *r.Category
		}
		data.Responses = append(data.Responses, view)
	}

	var b strings.Builder
	if err := reportTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Product Transparency Report - {{.Name}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: 'Inter', -apple-system, BlinkMacSystemFont, sans-serif;
      line-height: 1.6;
      color: #1a1a1a;
      padding: 40px;
      max-width: 800px;
      margin: 0 auto;
    }
    .header { border-bottom: 3px solid #059669; padding-bottom: 20px; margin-bottom: 30px; }
    h1 { font-size: 32px; font-weight: 700; color: #059669; margin-bottom: 8px; }
    .meta { color: #666; font-size: 14px; }
    .score-section {
      background: #f0fdf4;
      border: 2px solid #059669;
      border-radius: 8px;
      padding: 20px;
      margin: 30px 0;
      text-align: center;
    }
    .score { font-size: 48px; font-weight: 700; color: #059669; }
    .score-label { color: #666; font-size: 14px; text-transform: uppercase; letter-spacing: 1px; }
    .category-scores { margin: 30px 0; }
    .category-score {
      display: flex;
      justify-content: space-between;
      align-items: center;
      padding: 12px;
      border-bottom: 1px solid #e5e5e5;
    }
    .category-name { font-weight: 600; }
    .category-value { font-weight: 700; color: #059669; }
    .section { margin: 30px 0; }
    h2 { font-size: 24px; color: #1a1a1a; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #e5e5e5; }
    .response { margin-bottom: 25px; page-break-inside: avoid; }
    .question { font-weight: 600; color: #1a1a1a; margin-bottom: 8px; }
    .answer { color: #4a4a4a; padding-left: 16px; white-space: pre-wrap; }
    .badge {
      display: inline-block;
      background: #e5e5e5;
      color: #666;
      padding: 4px 12px;
      border-radius: 12px;
      font-size: 12px;
      margin-left: 8px;
    }
    .footer {
      margin-top: 50px;
      padding-top: 20px;
      border-top: 1px solid #e5e5e5;
      text-align: center;
      color: #999;
      font-size: 12px;
    }
    @media print {
      body { padding: 20px; }
      .score-section { break-inside: avoid; }
    }
  </style>
</head>
<body>
  <div class="header">
    <h1>{{.Name}}</h1>
    <div class="meta">
      {{if .Brand}}<strong>{{.Brand}}</strong> &bull; {{end}}{{.Category}}
      {{if .Description}}<br>{{.Description}}{{end}}
    </div>
  </div>

  <div class="score-section">
    <div class="score-label">Overall Transparency Score</div>
    <div class="score">{{.Score}}</div>
  </div>

  {{if .Breakdown}}
  <div class="category-scores">
    <h2>Category Breakdown</h2>
    {{range .Breakdown}}
    <div class="category-score">
      <span class="category-name">{{.Category}}</span>
      <span class="category-value">{{.Score}}%</span>
    </div>
    {{end}}
  </div>
  {{end}}

  <div class="section">
    <h2>Detailed Information</h2>
    {{range .Responses}}
    <div class="response">
      <div class="question">
        {{.Question}}
        {{if .Category}}<span class="badge">{{.Category}}</span>{{end}}
      </div>
      <div class="answer">{{.Answer}}</div>
    </div>
    {{end}}
  </div>

  <div class="footer">
    <p>Product Transparency Report</p>
    <p>Generated on {{.GeneratedOn}}</p>
    <p>Report ID: {{.ReportID}}</p>
  </div>
</body>
</html>
`))
