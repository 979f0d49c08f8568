package extraction

import (
	"context"
	"errors"
	"log"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/barcode"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/ocr"
)

// Strategy names, also used as metric labels and in API responses.
const (
	StrategyText    = "text"
	StrategyQR      = "qr"
	StrategyCode128 = "code128"
	StrategyOCR     = "ocr"
)

// Result is the outcome of one attempt. A miss is a normal value.
type Result struct {
	Key   accesskey.AccessKey
	Found bool
}

// Found wraps a validated key.
func Found(k accesskey.AccessKey) Result {
	return Result{Key: k, Found: true}
}

// NotFound is a miss.
func NotFound() Result {
	return Result{}
}

// SurfaceStrategy tries to recover a key from one surface.
type SurfaceStrategy interface {
	Name() string
	Attempt(ctx context.Context, s Surface) (Result, error)
}

// QRStrategy reads a QR code and looks for the key in its payload, which is
// usually the NFC-e lookup URL.
type QRStrategy struct {
	Decoder barcode.Decoder
}

func (QRStrategy) Name() string { return StrategyQR }

func (q QRStrategy) Attempt(_ context.Context, s Surface) (Result, error) {
	payload, err := q.Decoder.Decode(s.Image)
	if err != nil {
		return NotFound(), err
	}
	if k, ok := accesskey.FromPayload(payload); ok {
		return Found(k), nil
	}
	return NotFound(), nil
}

// Code128Strategy reads the linear barcode printed above the key on a DANFE.
type Code128Strategy struct {
	Decoder barcode.Decoder
}

func (Code128Strategy) Name() string { return StrategyCode128 }

func (c Code128Strategy) Attempt(_ context.Context, s Surface) (Result, error) {
	payload, err := c.Decoder.Decode(s.Image)
	if err != nil {
		return NotFound(), err
	}
	k, err := accesskey.Parse(payload)
	if err != nil {
		return NotFound(), nil
	}
	return Found(k), nil
}

// OCRStrategy recognizes digits on the surface and searches the text.
type OCRStrategy struct {
	Engine   ocr.Engine
	Language string
}

func (OCRStrategy) Name() string { return StrategyOCR }

func (o OCRStrategy) Attempt(ctx context.Context, s Surface) (Result, error) {
	text, err := o.Engine.Recognize(ctx, s.Image, o.Language, ocr.Digits)
	if err != nil {
		return NotFound(), err
	}
	if k, ok := accesskey.FromText(text); ok {
		return Found(k), nil
	}
	return NotFound(), nil
}

// attempt runs st on s and folds errors and panics into a miss.
func attempt(ctx context.Context, st SurfaceStrategy, s Surface) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  %s strategy panicked on page %d at %d°: %v", st.Name(), s.Page, s.Rotation, r)
			res = NotFound()
		}
	}()

	res, err := st.Attempt(ctx, s)
	if err != nil {
		if !isMiss(err) {
			log.Printf("⚠️  %s strategy failed on page %d at %d°: %v", st.Name(), s.Page, s.Rotation, err)
		}
		return NotFound()
	}
	return res
}

func isMiss(err error) bool {
	return errors.Is(err, barcode.ErrNotFound)
}
