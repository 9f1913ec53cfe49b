//go:build ocr

package extract

import (
	"context"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR распознаёт текст локальным Tesseract
type TesseractOCR struct {
	Languages []string
}

func (t TesseractOCR) Recognize(_ context.Context, data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}

func init() {
	defaultOCR = TesseractOCR{}
}
