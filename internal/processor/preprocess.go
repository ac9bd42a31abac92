// preprocess.go - Image preprocessing for better OCR accuracy

package processor

import (
	"image"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/smartspend/expense-agent/configs"
)

// Enhance applies a fixed enhancement chain to a receipt image: contrast,
// sharpness, a small brightness lift, then a 3x3 median filter to suppress
// speckle noise. The transform is pure and must never abort the pipeline:
// any panic is recovered and the original image is returned unmodified.
func Enhance(img image.Image) (result image.Image) {
	result = img
	defer func() {
		if r := recover(); r != nil {
			result = img
		}
	}()

	// Resize oversized scans before enhancement (API and speed limits)
	maxDim := configs.MAX_IMAGE_DIMENSION
	if maxDim <= 0 {
		maxDim = 2000
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		if bounds.Dx() > bounds.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	// Multiple enhancement passes. AdjustContrast/AdjustBrightness take
	// percentages; 40 / 10 approximate the 1.8x / 1.1x enhancement factors
	// that work well on thermal-printer receipts.
	enhanced := imaging.AdjustContrast(img, 40)
	enhanced = imaging.Sharpen(enhanced, 2.2)
	enhanced = imaging.AdjustBrightness(enhanced, 10)

	// Noise reduction
	result = medianFilter3(enhanced)
	return result
}

// PrepareForOCR loads the image at imagePath, enhances it, and writes the
// processed copy alongside the original. It returns the path the OCR backend
// should read. On any failure the original path is returned so preprocessing
// never blocks extraction.
func PrepareForOCR(imagePath string) string {
	if !configs.ENABLE_IMAGE_PREPROCESSING {
		return imagePath
	}

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return imagePath
	}

	enhanced := Enhance(img)

	ext := filepath.Ext(imagePath)
	processedPath := strings.TrimSuffix(imagePath, ext) + "_processed.png"
	if err := imaging.Save(enhanced, processedPath); err != nil {
		return imagePath
	}

	return processedPath
}

// medianFilter3 applies a 3x3 median filter per channel. The imaging package
// has no median filter, and a blur would smear thin receipt glyphs; median
// keeps edges while killing isolated speckle pixels.
func medianFilter3(img image.Image) image.Image {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	dst := imaging.Clone(src)

	w, h := bounds.Dx(), bounds.Dy()
	var window [9]uint8

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			for c := 0; c < 3; c++ {
				i := 0
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						window[i] = src.Pix[((y+dy)*w+(x+dx))*4+c]
						i++
					}
				}
				dst.Pix[(y*w+x)*4+c] = median9(window)
			}
		}
	}

	return dst
}

func median9(w [9]uint8) uint8 {
	s := w[:]
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s[4]
}
