package imageprocessor

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/ManuelReschke/NetPortal/internal/pkg/shortener"
)

// Upload directories and bounds for admin artwork
const (
	IconsDir      = "uploads/icons"
	LogosDir      = "uploads/logos"
	MaxIconSize   = 256
	MaxLogoWidth  = 600
	MaxLogoHeight = 200
	webpQuality   = 85
)

// Variant is a processed upload. File is the PNG name, WebPFile its WebP twin.
type Variant struct {
	File     string
	WebPFile string
	Width    int
	Height   int
}

// ProcessUpload decodes src, scales it down to fit maxWidth x maxHeight and
// stores a PNG and a WebP copy in dir under a random base name.
func ProcessUpload(src io.Reader, dir string, maxWidth, maxHeight int) (*Variant, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	base, err := shortener.Base62(16)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	v := &Variant{
		File:     base + ".png",
		WebPFile: base + ".webp",
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
	}
	if err := imaging.Save(img, filepath.Join(dir, v.File)); err != nil {
		return nil, fmt.Errorf("save png: %w", err)
	}
	if err := saveWebP(img, filepath.Join(dir, v.WebPFile)); err != nil {
		// the PNG alone is still usable
		log.Warnf("[ImageProcessor] webp variant for %s failed: %v", v.File, err)
		v.WebPFile = ""
	}

	log.Infof("[ImageProcessor] stored %s (%dx%d)", v.File, v.Width, v.Height)
	return v, nil
}

// WebPName returns the WebP file stored next to a PNG produced by ProcessUpload.
func WebPName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ".webp"
}

// Remove deletes a stored upload and its WebP twin. Missing files are ignored.
func Remove(dir, file string) {
	if file == "" || strings.ContainsAny(file, `/\`) {
		return
	}
	for _, name := range []string{file, WebPName(file)} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			log.Warnf("[ImageProcessor] remove %s: %v", name, err)
		}
	}
}

// saveWebP saves an image in WebP format
func saveWebP(img image.Image, outputPath string) error {
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating WebP file: %w", err)
	}
	defer output.Close()

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
	if err != nil {
		return fmt.Errorf("error creating encoder options: %w", err)
	}

	if err := webp.Encode(output, img, options); err != nil {
		return fmt.Errorf("error encoding WebP image: %w", err)
	}

	return nil
}
