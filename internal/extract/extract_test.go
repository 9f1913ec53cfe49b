package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/MosinFAM/smart-feed/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	e := NewExtractor(Options{})

	assert.Equal(t, "abc", e.Extract(context.Background(), []byte("abc"), "text/plain"))
	assert.Equal(t, "abc", e.Extract(context.Background(), []byte("abc"), "text/plain; charset=utf-8"))
}

func TestSniffsKindWhenMissing(t *testing.T) {
	e := NewExtractor(Options{})

	assert.Equal(t, "hello there", e.Extract(context.Background(), []byte("hello there"), ""))
}

func TestUnknownKindIsEmpty(t *testing.T) {
	e := NewExtractor(Options{})

	assert.Equal(t, "", e.Extract(context.Background(), []byte{0x00, 0x01}, "video/mp4"))
}

func TestPDF(t *testing.T) {
	e := NewExtractor(Options{})

	text, err := e.Text(context.Background(), buildPDF(t, "Hello PDF"), KindPDF)

	require.NoError(t, err)
	assert.Contains(t, text, "Hello PDF")
}

func TestPDF_SniffedKind(t *testing.T) {
	e := NewExtractor(Options{})

	assert.Contains(t, e.Extract(context.Background(), buildPDF(t, "Sniffed"), ""), "Sniffed")
}

func TestCorruptPDF(t *testing.T) {
	e := NewExtractor(Options{})

	text := e.Extract(context.Background(), []byte("%PDF-1.4 garbage"), KindPDF)

	assert.Equal(t, "[could not read PDF document]", text)
}

func TestCorruptPDF_TextReturnsError(t *testing.T) {
	e := NewExtractor(Options{})

	text, err := e.Text(context.Background(), []byte("%PDF-1.4 garbage"), KindPDF)

	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestDocx(t *testing.T) {
	e := NewExtractor(Options{})
	doc := buildZip(t, "word/document.xml", `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
<w:p><w:r><w:t>Second line</w:t></w:r></w:p>
</w:body>
</w:document>`)

	text := e.Extract(context.Background(), doc, KindDOCX)

	assert.Equal(t, "Hello world\nSecond line", text)
}

func TestDocx_Entities(t *testing.T) {
	e := NewExtractor(Options{})
	doc := buildZip(t, "word/document.xml", `<w:document><w:body>
<w:p><w:r><w:t>Tom &amp; Jerry</w:t></w:r></w:p>
</w:body></w:document>`)

	assert.Equal(t, "Tom & Jerry", e.Extract(context.Background(), doc, KindDOCX))
}

func TestODT(t *testing.T) {
	e := NewExtractor(Options{})
	doc := buildZip(t, "content.xml", `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text><text:p>Hello ODT</text:p></office:text></office:body>
</office:document-content>`)

	assert.Equal(t, "Hello ODT", e.Extract(context.Background(), doc, KindODT))
}

func TestCorruptDocx(t *testing.T) {
	e := NewExtractor(Options{})

	assert.Equal(t, "[could not read Word document]", e.Extract(context.Background(), []byte("nope"), KindDOCX))
}

func TestImageVision(t *testing.T) {
	gen := new(ai.MockGenerator)
	gen.On("Generate", visionPrompt, mock.Anything).Return(" STOP sign ", nil)
	e := NewExtractor(Options{ImageMode: ImageVision, Vision: gen})

	text := e.Extract(context.Background(), pngBytes(t, 10, 10), "image/png")

	assert.Equal(t, "STOP sign", text)
	blobs := gen.Calls[0].Arguments.Get(1).([]ai.Blob)
	require.Len(t, blobs, 1)
	assert.Equal(t, "image/png", blobs[0].MimeType)
}

func TestImageVision_LargeImageDownscaled(t *testing.T) {
	gen := new(ai.MockGenerator)
	gen.On("Generate", visionPrompt, mock.Anything).Return("text", nil)
	e := NewExtractor(Options{ImageMode: ImageVision, Vision: gen})

	e.Extract(context.Background(), pngBytes(t, 3000, 20), "image/png")

	blobs := gen.Calls[0].Arguments.Get(1).([]ai.Blob)
	assert.Equal(t, "image/jpeg", blobs[0].MimeType)
}

func TestImageVision_Failure(t *testing.T) {
	gen := new(ai.MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota"))
	e := NewExtractor(Options{ImageMode: ImageVision, Vision: gen})

	assert.Equal(t, "[image could not be read]", e.Extract(context.Background(), pngBytes(t, 4, 4), "image/png"))
}

func TestImageVision_FailureTextReturnsError(t *testing.T) {
	gen := new(ai.MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota"))
	e := NewExtractor(Options{ImageMode: ImageVision, Vision: gen})

	_, err := e.Text(context.Background(), pngBytes(t, 4, 4), "image/png")

	assert.Error(t, err)
}

func TestImageWithoutCapability(t *testing.T) {
	e := NewExtractor(Options{ImageMode: ImageNone})

	assert.Equal(t, "", e.Extract(context.Background(), pngBytes(t, 4, 4), "image/png"))
}

type stubOCR struct{ text string }

func (s stubOCR) Recognize(context.Context, []byte) (string, error) { return s.text, nil }

func TestImageOCR(t *testing.T) {
	e := NewExtractor(Options{ImageMode: ImageOCR, OCR: stubOCR{text: " menu \n"}})

	assert.Equal(t, "menu", e.Extract(context.Background(), pngBytes(t, 4, 4), "image/png"))
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument(KindPDF))
	assert.True(t, IsDocument("text/plain; charset=utf-8"))
	assert.True(t, IsDocument(KindDOCX))
	assert.True(t, IsDocument(KindODT))
	assert.False(t, IsDocument("image/png"))
	assert.False(t, IsDocument("video/mp4"))
}

func buildZip(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF собирает одностраничный PDF с таблицей xref по реальным смещениям
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()
	content := "BT /F1 24 Tf 72 712 Td (" + text + ") Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
