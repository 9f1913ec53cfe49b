package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/MosinFAM/smart-feed/internal/ai"

	"github.com/disintegration/imaging"
)

const (
	visionPrompt = "Extract all readable text from this image. If there is no text, describe the image in one or two sentences."
	maxImageSide = 1536

	ocrNote    = "[image text could not be recognized]"
	visionNote = "[image could not be read]"
)

func (e *Extractor) imageText(ctx context.Context, data []byte, kind string) (string, error) {
	switch e.imageMode {
	case ImageOCR:
		if e.ocr == nil {
			return "", nil
		}
		text, err := e.ocr.Recognize(ctx, data)
		if err != nil {
			return "", unreadable(ocrNote, err)
		}
		return strings.TrimSpace(text), nil
	case ImageVision:
		if e.vision == nil {
			return "", nil
		}
		text, err := e.vision.Generate(ctx, visionPrompt, prepareImage(data, kind))
		if err != nil {
			return "", unreadable(visionNote, err)
		}
		return strings.TrimSpace(text), nil
	default:
		return "", nil
	}
}

// prepareImage уменьшает большие картинки и пережимает их в JPEG.
// Форматы, которые imaging не читает, уходят как есть.
func prepareImage(data []byte, kind string) ai.Blob {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return ai.Blob{MimeType: kind, Data: data}
	}
	b := img.Bounds()
	if b.Dx() <= maxImageSide && b.Dy() <= maxImageSide {
		return ai.Blob{MimeType: kind, Data: data}
	}

	img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return ai.Blob{MimeType: kind, Data: data}
	}
	return ai.Blob{MimeType: "image/jpeg", Data: buf.Bytes()}
}
