// Package barcode decodes the 2-D (QR) and 1-D (Code 128) symbols printed on
// DANFE and NFC-e documents.
//
// Decoding itself is done by gozxing, a Go port of ZXing. This package only
// adapts it to a one-method Decoder and turns decoder panics into errors.
package barcode

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotFound is returned when no symbol could be read from the image.
var ErrNotFound = errors.New("barcode not found")

// Decoder reads a single symbol from an image.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// QR decodes QR codes, the symbol used on NFC-e receipts (it encodes the
// consultation URL with the key as a parameter).
type QR struct{}

// NewQR creates a QR decoder.
func NewQR() *QR {
	return &QR{}
}

func (QR) Decode(img image.Image) (string, error) {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return decode(qrcode.NewQRCodeReader(), img, hints)
}

// Code128 decodes Code 128, the linear symbology DANFEs use to print the key.
type Code128 struct{}

// NewCode128 creates a Code 128 decoder.
func NewCode128() *Code128 {
	return &Code128{}
}

func (Code128) Decode(img image.Image) (string, error) {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
		gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
			gozxing.BarcodeFormat_CODE_128,
		},
	}
	return decode(oned.NewCode128Reader(), img, hints)
}

func decode(reader gozxing.Reader, img image.Image, hints map[gozxing.DecodeHintType]interface{}) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to binarize image: %w", err)
	}
	result, err := reader.Decode(bmp, hints)
	if err != nil {
		var nf gozxing.NotFoundException
		if errors.As(err, &nf) {
			return "", ErrNotFound
		}
		return "", err
	}
	return result.GetText(), nil
}
