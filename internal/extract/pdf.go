// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// defaultMinCharsPerPage is the text-density floor. A PDF averaging fewer
// extracted characters per page than this, while carrying image streams,
// is treated as a scan and routed to OCR. Heuristic policy, tunable via
// ExtractConfig.
const defaultMinCharsPerPage = 50

// pdfDecoder extracts a PDF's embedded text layer and falls back to OCR
// over page images when the layer is too sparse to be reliable.
type pdfDecoder struct {
	minCharsPerPage float64
	ocr             ocrEngine
}

func (d *pdfDecoder) Decode(data []byte) (string, bool, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", false, fmt.Errorf("reading pdf: %w", err)
	}
	if ctx.PageCount == 0 {
		return "", false, fmt.Errorf("pdf has no pages")
	}

	var sb strings.Builder
	totalChars := 0
	hasImages := false

	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
			hasImages = true
		}
		pageText := pageTextLayer(ctx, pageNr)
		if pageText == "" {
			continue
		}
		totalChars += len([]rune(pageText))
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)
	}

	charsPerPage := float64(totalChars) / float64(ctx.PageCount)
	if charsPerPage >= d.minCharsPerPage || !hasImages {
		return sb.String(), false, nil
	}

	// Text layer too sparse for an image-bearing PDF: likely a scan.
	if d.ocr == nil {
		return "", false, fmt.Errorf("text layer too sparse (%.0f chars/page) and OCR is disabled", charsPerPage)
	}
	text, err := d.ocrPages(ctx)
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}

// ocrPages runs OCR over every image embedded in the PDF, page by page.
func (d *pdfDecoder) ocrPages(ctx *model.Context) (string, error) {
	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		images, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
		if err != nil {
			return "", fmt.Errorf("extracting images from page %d: %w", pageNr, err)
		}
		for _, img := range images {
			imgData, err := io.ReadAll(img)
			if err != nil {
				return "", fmt.Errorf("reading image on page %d: %w", pageNr, err)
			}
			text, err := d.ocr.Recognize(imgData)
			if err != nil {
				return "", fmt.Errorf("ocr on page %d: %w", pageNr, err)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}

// pageTextLayer pulls the text shown by one page's content stream.
func pageTextLayer(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return contentStreamText(data)
}

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// contentStreamText scans content-stream operators for shown text. Only
// the text-showing operators (Tj, TJ, ') and line moves (T*, Td, TD) are
// interpreted; everything else is positioning we do not need.
func contentStreamText(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return cleanStreamText(sb.String())
}

// decodePDFString resolves basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanStreamText drops unprintable runes and collapses runs of spaces,
// keeping newlines so section heuristics still see line structure.
func cleanStreamText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
