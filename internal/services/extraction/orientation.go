package extraction

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/Shimizu-Technology/nfe-key-api/internal/services/pdf"
)

// Rotation is a clockwise page rotation in degrees.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Rotations is the fixed order in which every page is tried.
var Rotations = []Rotation{Rotation0, Rotation90, Rotation180, Rotation270}

// Apply returns img turned clockwise by r. imaging rotates counter-clockwise,
// hence the swapped 90/270 calls.
func (r Rotation) Apply(img image.Image) image.Image {
	switch r {
	case Rotation90:
		return imaging.Rotate270(img)
	case Rotation180:
		return imaging.Rotate180(img)
	case Rotation270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Surface is one page at one rotation, the unit every image strategy works on.
type Surface struct {
	Page     int
	Rotation Rotation
	Image    image.Image
}

// ExpandPage turns one rendered page into its four surfaces in Rotations
// order. The rotations are computed concurrently. Callers expand one page at
// a time so at most four rotated copies of a page are alive at once.
func ExpandPage(ctx context.Context, page pdf.Page) ([]Surface, error) {
	surfaces := make([]Surface, len(Rotations))

	g, gctx := errgroup.WithContext(ctx)
	for i, rot := range Rotations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			surfaces[i] = Surface{
				Page:     page.Number,
				Rotation: rot,
				Image:    rot.Apply(page.Image),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return surfaces, nil
}
