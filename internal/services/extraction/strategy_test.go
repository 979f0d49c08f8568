package extraction

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	payload string
	err     error
}

func (s stubDecoder) Decode(image.Image) (string, error) {
	return s.payload, s.err
}

type stubEngine struct {
	text      string
	lang      string
	whitelist string
}

func (s *stubEngine) Recognize(_ context.Context, _ image.Image, lang, whitelist string) (string, error) {
	s.lang, s.whitelist = lang, whitelist
	return s.text, nil
}

func TestSurfaceStrategies(t *testing.T) {
	surface := Surface{Page: 1, Image: image.NewGray(image.Rect(0, 0, 1, 1))}

	tests := []struct {
		name      string
		strategy  SurfaceStrategy
		wantFound bool
	}{
		{"QR with bare key", QRStrategy{Decoder: stubDecoder{payload: validKey}}, true},
		{"QR with lookup URL", QRStrategy{Decoder: stubDecoder{payload: "https://x/y?chNFe=" + validKey}}, true},
		{"QR with unrelated payload", QRStrategy{Decoder: stubDecoder{payload: "hello"}}, false},
		{"Code128 with separators", Code128Strategy{Decoder: stubDecoder{payload: "3524-0312-3456 7800 0195 5500 1000 0001 2311 2345 6789"}}, true},
		{"Code128 with bad check digit", Code128Strategy{Decoder: stubDecoder{payload: validKey[:43] + "0"}}, false},
		{"Code128 decoder error", Code128Strategy{Decoder: stubDecoder{err: errors.New("checksum")}}, false},
		{"OCR text", OCRStrategy{Engine: &stubEngine{text: "3524031234567800019555\n0010000001231123456789"}, Language: "por"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := attempt(context.Background(), tt.strategy, surface)
			assert.Equal(t, tt.wantFound, res.Found)
			if tt.wantFound {
				assert.Equal(t, validKey, res.Key.String())
			}
		})
	}
}

func TestOCRStrategy_UsesDigitWhitelist(t *testing.T) {
	engine := &stubEngine{}
	_, _ = OCRStrategy{Engine: engine, Language: "por"}.Attempt(context.Background(), Surface{})
	assert.Equal(t, "por", engine.lang)
	assert.Equal(t, "0123456789", engine.whitelist)
}

func TestExpandPage_Order(t *testing.T) {
	surfaces, err := ExpandPage(context.Background(), blankPage(3))
	require.NoError(t, err)
	require.Len(t, surfaces, 4)

	for i, s := range surfaces {
		assert.Equal(t, 3, s.Page)
		assert.Equal(t, Rotations[i], s.Rotation)
	}

	// 20x30 pages turn into 30x20 surfaces at 90 and 270 degrees.
	assert.Equal(t, image.Rect(0, 0, 20, 30), surfaces[0].Image.Bounds())
	assert.Equal(t, image.Rect(0, 0, 30, 20), surfaces[1].Image.Bounds().Sub(surfaces[1].Image.Bounds().Min))
	assert.Equal(t, 30, surfaces[3].Image.Bounds().Dx())
}

func TestExpandPage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExpandPage(ctx, blankPage(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRotation_ApplyIsClockwise(t *testing.T) {
	page := blankPage(1)
	page.Image.(*image.RGBA).Set(0, 0, red)

	// Top-left goes to top-right after a clockwise quarter turn.
	rotated := Rotation90.Apply(page.Image)
	b := rotated.Bounds()
	r, g, bl, _ := rotated.At(b.Max.X-1, b.Min.Y).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, bl})
}
