// Package share - ссылки на пост и готовые ссылки, чтобы им поделиться
package share

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// QueryParam - параметр ссылки, пост с этим ID подсвечивается в ленте
const QueryParam = "post_id"

const (
	whatsAppBase = "https://wa.me/?text="
	emailSubject = "Check out this post"
	qrSize       = 256
)

// Links - все варианты ссылки на один пост
type Links struct {
	Link     string `json:"link"`
	WhatsApp string `json:"whatsapp"`
	Email    string `json:"email"`
}

// DeepLink возвращает base?post_id=<id>, сохраняя остальные параметры base
func DeepLink(base, postID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	q := u.Query()
	q.Set(QueryParam, postID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// For собирает ссылку на пост и варианты для мессенджера и почты
func For(base, postID string) (Links, error) {
	link, err := DeepLink(base, postID)
	if err != nil {
		return Links{}, err
	}
	message := emailSubject + ": " + link
	return Links{
		Link:     link,
		WhatsApp: whatsAppBase + url.QueryEscape(message),
		Email:    "mailto:?subject=" + mailEscape(emailSubject) + "&body=" + mailEscape(message),
	}, nil
}

// QRCode рисует content как QR-код в PNG
func QRCode(content string) ([]byte, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	code, err = barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// почтовые клиенты не превращают '+' в пробел в mailto
func mailEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
