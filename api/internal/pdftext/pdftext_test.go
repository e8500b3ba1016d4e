package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal uncompressed PDF with one Helvetica text line per page.
func buildPDF(lines ...string) []byte {
	var objs []string
	kids := ""
	n := len(lines)
	// 1 catalog, 2 pages, 3 font, then page/content pairs
	for i := range lines {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, l := range lines {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", l)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestExtract_Pages(t *testing.T) {
	res, err := Extract(buildPDF("Hello attention", "Second page"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "Hello")
	assert.Contains(t, res.Text, "Second")
	assert.Contains(t, res.Text, "\n\n")
	assert.GreaterOrEqual(t, res.Words, 4)
}

func TestExtract_NotPDF(t *testing.T) {
	_, err := Extract([]byte("just some text"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = Extract(nil)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestExtract_Broken(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4\ngarbage without xref"))
	assert.Error(t, err)
}

func TestExtract_Sample(t *testing.T) {
	data, err := os.ReadFile("testdata/sample.pdf")
	require.NoError(t, err)
	res, err := Extract(data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "Attention")
}
