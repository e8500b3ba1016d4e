package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/util"
)

// ErrNotPDF is returned for uploads without the %PDF- header.
var ErrNotPDF = errors.New("not a PDF document")

// Extract returns the plain text of every readable page, pages separated by
// a blank line. Pages that fail to extract are skipped.
func Extract(data []byte) (res types.ExtractResult, err error) {
	if !util.IsPDF(data) {
		return types.ExtractResult{}, ErrNotPDF
	}
	// the parser panics on some broken files
	defer func() {
		if r := recover(); r != nil {
			res = types.ExtractResult{}
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return types.ExtractResult{}, fmt.Errorf("open pdf: %w", err)
	}

	n := rd.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := rd.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if txt = strings.TrimSpace(txt); txt != "" {
			pages = append(pages, txt)
		}
	}

	text := strings.Join(pages, "\n\n")
	return types.ExtractResult{
		Text:  text,
		Pages: n,
		Words: len(strings.Fields(text)),
	}, nil
}
