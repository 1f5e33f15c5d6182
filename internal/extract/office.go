// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
)

// docDecoder handles legacy Word (.doc) files via docconv.
type docDecoder struct{}

func (docDecoder) Decode(data []byte) (string, bool, error) {
	text, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("converting doc: %w", err)
	}
	return text, false, nil
}

// docxDecoder handles Office Open XML (.docx) files via docconv.
type docxDecoder struct{}

func (docxDecoder) Decode(data []byte) (string, bool, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("converting docx: %w", err)
	}
	return text, false, nil
}
