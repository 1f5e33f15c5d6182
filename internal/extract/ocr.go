// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// ocrEngine recognizes text in one image. The pdf decoder holds one so
// tests can substitute a fake and OCR can be disabled outright.
type ocrEngine interface {
	Recognize(image []byte) (string, error)
}

// tesseractEngine is the production engine backed by tesseract.
type tesseractEngine struct {
	lang     string
	tessdata string
}

func (t *tesseractEngine) Recognize(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdata != "" {
		if err := client.SetTessdataPrefix(t.tessdata); err != nil {
			return "", fmt.Errorf("setting tessdata directory: %w", err)
		}
	}
	if t.lang != "" {
		if err := client.SetLanguage(t.lang); err != nil {
			return "", fmt.Errorf("setting ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running ocr: %w", err)
	}
	return text, nil
}
