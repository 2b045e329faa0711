package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"book_search/internal/models"
	"book_search/internal/parser"
	"book_search/internal/search"
)

const (
	cbSelectPrefix = "sel:"
	cbAddToShelf   = "add"
	cbClearShelf   = "shelf:clear"

	maxButtonRunes   = 48
	maxContentsRunes = 300

	untitled = "제목 없음"
)

var printer = message.NewPrinter(language.Korean)

// formatPrice: 12000 -> "12,000원".
func formatPrice(price int) string {
	return printer.Sprintf("%d원", price)
}

func displayTitle(book models.Book) string {
	if strings.TrimSpace(book.Title) == "" {
		return untitled
	}
	return book.Title
}

func sectionIcon(kind search.SectionKind) string {
	if kind == search.SectionRecent {
		return "📚"
	}
	return "🔎"
}

func kindCode(kind search.SectionKind) string {
	if kind == search.SectionRecent {
		return "r"
	}
	return "s"
}

// selectData — позиция книги в callback data, например "sel:s:3".
func selectData(kind search.SectionKind, index int) string {
	return fmt.Sprintf("%s%s:%d", cbSelectPrefix, kindCode(kind), index)
}

// parseSelectData — обратная операция к selectData.
func parseSelectData(data string) (search.SectionKind, int, bool) {
	rest, ok := strings.CutPrefix(data, cbSelectPrefix)
	if !ok {
		return 0, 0, false
	}
	code, idxStr, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, false
	}

	var kind search.SectionKind
	switch code {
	case "r":
		kind = search.SectionRecent
	case "s":
		kind = search.SectionSearch
	default:
		return 0, 0, false
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, 0, false
	}
	return kind, idx, true
}

// bookAt — книга, на которую указывает кнопка выбора.
func bookAt(sections []search.Section, kind search.SectionKind, index int) (models.Book, bool) {
	for _, s := range sections {
		if s.Kind != kind {
			continue
		}
		if index < len(s.Items) {
			return s.Items[index], true
		}
		return models.Book{}, false
	}
	return models.Book{}, false
}

// renderSections — сообщение со списком: блок текста на секцию, кнопка на книгу.
func renderSections(sections []search.Section) (string, [][]tgbotapi.InlineKeyboardButton) {
	var (
		sb   strings.Builder
		rows [][]tgbotapi.InlineKeyboardButton
	)

	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s\n", sectionIcon(s.Kind), s.Title)
		if len(s.Items) == 0 {
			sb.WriteString("결과가 없어요.\n")
			continue
		}
		for j, book := range s.Items {
			line := displayTitle(book)
			if authors := book.AuthorLine(); authors != "" {
				line += " — " + authors
			}
			fmt.Fprintf(&sb, "%d. %s\n", j+1, line)

			label := sectionIcon(s.Kind) + " " + truncate(displayTitle(book), maxButtonRunes)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, selectData(s.Kind, j)),
			))
		}
	}

	return strings.TrimRight(sb.String(), "\n"), rows
}

// bookCard — карточка книги: название, авторы, переводчики, издательство, дата, цена,
// статус продажи, ISBN, ссылка и описание. Пустые поля пропускаем.
func bookCard(book models.Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 %s\n", displayTitle(book))

	// 1. Люди
	if authors := book.AuthorLine(); authors != "" {
		fmt.Fprintf(&sb, "✍️ %s\n", authors)
	}
	if translators := book.TranslatorLine(); translators != "" {
		fmt.Fprintf(&sb, "🔤 옮긴이: %s\n", translators)
	}

	// 2. Издание
	if book.Publisher != "" {
		fmt.Fprintf(&sb, "🏢 %s\n", book.Publisher)
	}
	if published := book.PublishedOn(); published != "" {
		fmt.Fprintf(&sb, "📅 %s\n", published)
	}

	// 3. Цена (со скидкой — через стрелку)
	switch {
	case book.OnSale():
		fmt.Fprintf(&sb, "💰 %s → %s\n", formatPrice(book.Price), formatPrice(book.SalePrice))
	case book.Price > 0:
		fmt.Fprintf(&sb, "💰 %s\n", formatPrice(book.Price))
	}
	if book.Status != "" {
		fmt.Fprintf(&sb, "📌 %s\n", book.Status)
	}

	// 4. Идентификаторы
	if isbn := strings.TrimSpace(book.ISBN); isbn != "" {
		fmt.Fprintf(&sb, "🔖 ISBN %s\n", isbn)
	}
	if book.URL != "" {
		fmt.Fprintf(&sb, "🔗 %s\n", book.URL)
	}

	// 5. Описание (HTML из API чистим)
	if contents := parser.Summary(book.Contents, maxContentsRunes); contents != "" {
		fmt.Fprintf(&sb, "\n%s", contents)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func cardKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("담기", cbAddToShelf),
	))
}

// renderShelf — полка, новые сначала, с кнопкой "전체 삭제".
func renderShelf(books []models.Book) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(books) == 0 {
		return "책장이 비어 있어요.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 내 책장 (%d권)\n", len(books))
	for i, book := range books {
		line := displayTitle(book)
		if book.Price > 0 {
			line += " · " + formatPrice(book.Price)
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 전체 삭제", cbClearShelf),
	))
	return strings.TrimRight(sb.String(), "\n"), &markup
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes-1]) + "…"
}
