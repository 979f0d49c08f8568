package invoice

import "github.com/Shimizu-Technology/nfe-key-api/internal/models"

// Response renders the result in the API shape.
func (r *Result) Response() models.ProcessResponse {
	return models.ProcessResponse{
		OK:     true,
		Key:    r.Key.String(),
		Source: r.Source,
		NFe:    r.Record,
		Raw:    r.Raw,
	}
}
