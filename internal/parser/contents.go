package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PlainText убирает из текстового поля API разметку и сущности, схлопывает пробелы.
// API иногда присылает contents с HTML-тегами или &amp;-сущностями.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	// 1. Нет ни тегов, ни сущностей — парсер не нужен
	if !strings.ContainsAny(s, "<&") {
		return collapseSpaces(s)
	}

	// 2. Разбираем как HTML-фрагмент
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}
	// 3. <br> превращаем в пробел, иначе слова склеятся
	body := doc.Find("body")
	body.Find("br").ReplaceWithHtml(" ")
	return collapseSpaces(body.Text())
}

// Summary — PlainText, обрезанный до maxRunes рун (с многоточием, если обрезали).
func Summary(s string, maxRunes int) string {
	text := PlainText(s)
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes-1])) + "…"
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
