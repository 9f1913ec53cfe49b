package extract

import (
	"html"
	"strings"

	"github.com/lu4p/cat/docxtxt"
	"github.com/lu4p/cat/odtxt"
)

const (
	docxNote = "[could not read Word document]"
	odtNote  = "[could not read OpenDocument text]"
)

// docxText - текст абзацев документа Word, по абзацу на строку
func docxText(data []byte) (string, error) {
	text, err := docxtxt.BytesToStr(data)
	if err != nil {
		return "", unreadable(docxNote, err)
	}
	return strings.TrimRight(html.UnescapeString(text), "\n"), nil
}

func odtText(data []byte) (string, error) {
	text, err := odtxt.BytesToStr(data)
	if err != nil {
		return "", unreadable(odtNote, err)
	}
	return strings.TrimSpace(text), nil
}
