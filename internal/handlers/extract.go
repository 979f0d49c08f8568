// extract.go handles the key extraction endpoint.
//
// POST /api/v1/extract-key: multipart upload, field "file"
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/nfe-key-api/internal/services/pdf"
)

// multipartOverhead leaves room for the form boundary and headers.
const multipartOverhead = 1 << 20

// ExtractKey finds the access key in an uploaded PDF.
// POST /api/v1/extract-key
//
// The optional use_ocr field (form or query) overrides the server default.
func (h *Handler) ExtractKey(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, fmt.Sprintf("PDF exceeds %d MB", h.MaxUploadBytes>>20))
			return
		}
		badRequest(c, "PDF file is required (multipart field 'file')")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		badRequest(c, fmt.Sprintf("PDF exceeds %d MB", h.MaxUploadBytes>>20))
		return
	}
	if !pdfservice.ValidatePDF(data) {
		badRequest(c, "The uploaded file does not appear to be a valid PDF")
		return
	}

	opts := h.Extraction
	if v, ok := ocrOverride(c); ok {
		opts.OCREnabled = v
	}
	if opts.MaxPages > 0 {
		if n, err := pdfservice.PageCount(data); err == nil && n > opts.MaxPages {
			log.Printf("⚠️  Upload has %d pages, only the first %d are scanned", n, opts.MaxPages)
		}
	}

	out, err := h.Extractor.ExtractKey(c.Request.Context(), data, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ExtractKeyResponse{
		OK:       true,
		Key:      out.Key.String(),
		Strategy: out.Strategy,
		Page:     out.Page,
		Rotation: int(out.Rotation),
	})
}

// ocrOverride reads use_ocr from the query string or the form.
func ocrOverride(c *gin.Context) (bool, bool) {
	raw := c.Query("use_ocr")
	if raw == "" {
		raw = c.PostForm("use_ocr")
	}
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
