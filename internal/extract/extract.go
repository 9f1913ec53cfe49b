// Package extract достаёт текст из загруженных файлов для промптов модели.
// Извлечение работает "как получится": Text возвращает ошибку, Extract
// превращает её в пометку в квадратных скобках.
package extract

import (
	"context"
	"errors"
	"log"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/MosinFAM/smart-feed/internal/ai"

	"github.com/gabriel-vasile/mimetype"
)

const (
	KindPDF  = "application/pdf"
	KindDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	KindODT  = "application/vnd.oasis.opendocument.text"
	KindText = "text/plain"
)

// Режимы обработки изображений
const (
	ImageVision = "vision"
	ImageOCR    = "ocr"
	ImageNone   = "none"
)

// Recognizer распознаёт текст на изображении
type Recognizer interface {
	Recognize(ctx context.Context, data []byte) (string, error)
}

// defaultOCR задаётся при сборке с тегом ocr
var defaultOCR Recognizer

// readError - ошибка разбора вместе с пометкой, которую увидит модель
type readError struct {
	note string
	err  error
}

func (e *readError) Error() string { return e.note + ": " + e.err.Error() }

func (e *readError) Unwrap() error { return e.err }

func unreadable(note string, err error) error {
	return &readError{note: note, err: err}
}

// Options - настройки Extractor
type Options struct {
	ImageMode string
	Vision    ai.Generator
	OCR       Recognizer
}

// Extractor выбирает способ извлечения по типу файла
type Extractor struct {
	imageMode string
	vision    ai.Generator
	ocr       Recognizer
}

func NewExtractor(opts Options) *Extractor {
	if opts.OCR == nil {
		opts.OCR = defaultOCR
	}
	if opts.ImageMode == "" {
		opts.ImageMode = ImageVision
	}
	return &Extractor{imageMode: opts.ImageMode, vision: opts.Vision, ocr: opts.OCR}
}

// Text возвращает текст файла. Пустой или общий тип заменяется определённым по содержимому.
// Для неизвестных типов - пустая строка без ошибки.
func (e *Extractor) Text(ctx context.Context, data []byte, declaredKind string) (string, error) {
	kind := NormalizeKind(declaredKind)
	if kind == "" || kind == "application/octet-stream" {
		kind = DetectKind(data)
	}

	switch {
	case kind == KindPDF:
		return pdfText(data)
	case kind == KindDOCX:
		return docxText(data)
	case kind == KindODT:
		return odtText(data)
	case strings.HasPrefix(kind, "text/"):
		return plainText(data), nil
	case strings.HasPrefix(kind, "image/"):
		return e.imageText(ctx, data, kind)
	default:
		return "", nil
	}
}

// Extract - как Text, но вместо ошибки возвращает пометку вида "[could not read PDF document]"
func (e *Extractor) Extract(ctx context.Context, data []byte, declaredKind string) string {
	text, err := e.Text(ctx, data, declaredKind)
	if err == nil {
		return text
	}
	log.Printf("Extraction failed: %v", err)
	var re *readError
	if errors.As(err, &re) {
		return re.note
	}
	return ""
}

// IsDocument - текстовый документ, а не картинка или видео
func IsDocument(kind string) bool {
	kind = NormalizeKind(kind)
	return kind == KindPDF || kind == KindDOCX || kind == KindODT || strings.HasPrefix(kind, "text/")
}

// NormalizeKind приводит MIME-тип к нижнему регистру и отбрасывает параметры
func NormalizeKind(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(kind); err == nil {
		return mediaType
	}
	return strings.ToLower(kind)
}

// DetectKind определяет MIME-тип по содержимому
func DetectKind(data []byte) string {
	return NormalizeKind(mimetype.Detect(data).String())
}

func plainText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
