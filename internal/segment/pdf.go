// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// pdfDocument reads page text with the pure-Go ledongthuc/pdf parser.
type pdfDocument struct {
	f *os.File
	r *pdf.Reader
}

// OpenPDF opens the PDF at path. The caller must Close the result.
func OpenPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	return &pdfDocument{f: f, r: r}, nil
}

func (d *pdfDocument) NumPages() int { return d.r.NumPage() }

func (d *pdfDocument) PageText(n int) (string, error) {
	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *pdfDocument) Close() error { return d.f.Close() }
