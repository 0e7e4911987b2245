package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"lumen/internal/domain"
	"lumen/internal/ports"
)

// ProductRepository

func (db *DB) CreateProduct(ctx context.Context, p ports.NewProduct) (domain.Product, error) {
	var out domain.Product
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO products (name, category, brand, description, image_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, category, brand, description, image_url, transparency_score, created_at
    `, p.Name, p.Category, p.Brand, p.Description, p.ImageURL).Scan(
		&out.ID, &out.Name, &out.Category, &out.Brand, &out.Description,
		&out.ImageURL, &out.TransparencyScore, &out.CreatedAt,
	)
	return out, err
}

func (db *DB) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	err := db.Pool.QueryRow(ctx, `
        SELECT id, name, category, brand, description, image_url, transparency_score, created_at
        FROM products WHERE id = $1
    `, id).Scan(
		&out.ID, &out.Name, &out.Category, &out.Brand, &out.Description,
		&out.ImageURL, &out.TransparencyScore, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ports.ErrNotFound
	}
	return out, err
}

func (db *DB) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, name, category, brand, description, image_url, transparency_score, created_at
        FROM products ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.Brand, &p.Description,
			&p.ImageURL, &p.TransparencyScore, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) UpdateProductScore(ctx context.Context, id string, score int) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE products SET transparency_score = $2 WHERE id = $1`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ResponseRepository

// CreateFormResponses replaces the product's answered-question batch. A product keeps
// at most one active batch, so retried submissions overwrite rather than
// duplicate.
func (db *DB) CreateFormResponses(ctx context.Context, responses []ports.NewFormResponse) ([]domain.FormResponse, error) {
	if len(responses) == 0 {
		return nil, nil
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM form_responses WHERE product_id = $1`, responses[0].ProductID); err != nil {
		return nil, err
	}

	out := make([]domain.FormResponse, 0, len(responses))
	for _, r := range responses {
		var saved domain.FormResponse
		err = tx.QueryRow(ctx, `
            INSERT INTO form_responses (product_id, question_id, question, answer, category)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, product_id, question_id, question, answer, category, created_at
        `, r.ProductID, r.QuestionID, r.Question, r.Answer, r.Category).Scan(
			&saved.ID, &saved.ProductID, &saved.QuestionID, &saved.Question,
			&saved.Answer, &saved.Category, &saved.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (db *DB) GetResponsesByProduct(ctx context.Context, productID string) ([]domain.FormResponse, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, product_id, question_id, question, answer, category, created_at
        FROM form_responses WHERE product_id = $1 ORDER BY created_at, id
    `, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FormResponse
	for rows.Next() {
		var r domain.FormResponse
		if err := rows.Scan(
			&r.ID, &r.ProductID, &r.QuestionID, &r.Question,
			&r.Answer, &r.Category, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReportRepository

func (db *DB) CreateReport(ctx context.Context, productID string, payload []byte) (domain.Report, error) {
	var out domain.Report
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO reports (product_id, report_data)
        VALUES ($1, $2)
        RETURNING id, product_id, report_data, pdf_url, created_at
    `, productID, payload).Scan(&out.ID, &out.ProductID, &out.Payload, &out.PDFURL, &out.CreatedAt)
	return out, err
}

func (db *DB) GetReportByProduct(ctx context.Context, productID string) (domain.Report, error) {
	var out domain.Report
	err := db.Pool.QueryRow(ctx, `
        SELECT id, product_id, report_data, pdf_url, created_at
        FROM reports WHERE product_id = $1
        ORDER BY created_at DESC LIMIT 1
    `, productID).Scan(&out.ID, &out.ProductID, &out.Payload, &out.PDFURL, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ports.ErrNotFound
	}
	return out, err
}
