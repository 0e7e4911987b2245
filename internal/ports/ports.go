package ports

import "context"

// TextGateway wraps the external text-generation model. Complete sends a
// system and user prompt and returns the raw model text. When structured is
// true the gateway asks the model for a JSON object payload; callers still
// own parsing, since the model may return garbage either way.
type TextGateway interface {
	Complete(ctx context.Context, system, user string, structured bool) (string, error)
}

// ReportDocument is a rendered report together with the filename it is
// served under. Caching both means a cache hit needs no store lookup.
type ReportDocument struct {
	Filename string
	HTML     string
}

// ReportCache caches rendered report documents keyed by product id. A nil
// cache is valid and means "no caching".
type ReportCache interface {
	Get(ctx context.Context, productID string) (doc ReportDocument, ok bool, err error)
	Set(ctx context.Context, productID string, doc ReportDocument) error
}
