package app

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// validatePDF rejects attachments with a .pdf name that the parser cannot
// open or that contain no pages.
func validatePDF(data []byte) error {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return nil
}
