package extract

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const pdfNote = "[could not read PDF document]"

// pdfText склеивает текст всех страниц; страница без текста ничего не добавляет
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", unreadable(pdfNote, fmt.Errorf("pdf reader panicked: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", unreadable(pdfNote, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("PDF page %d has no readable text: %v", i, err)
			continue
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}
