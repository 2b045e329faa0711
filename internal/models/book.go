package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Book — один документ из ответа API поиска книг.
// Upstream любое поле может прийти null; такие значения остаются нулевыми.
type Book struct {
	Authors      []string `json:"authors"`
	Contents     string   `json:"contents"`
	Price        int      `json:"price"`
	SalePrice    int      `json:"sale_price"`
	ThumbnailURL string   `json:"thumbnail"`
	Title        string   `json:"title"`

	// Дополнительные поля: только для карточки книги, поиск их не использует.
	ISBN        string   `json:"isbn,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Translators []string `json:"translators,omitempty"`
	URL         string   `json:"url,omitempty"`
	Status      string   `json:"status,omitempty"`
	Datetime    string   `json:"datetime,omitempty"`
}

// SameTitle — совпадают ли книги по названию (идентичность в списке "недавних").
// Книги без названия всегда разные.
func (b Book) SameTitle(other Book) bool {
	if b.Title == "" || other.Title == "" {
		return false
	}
	return b.Title == other.Title
}

// AuthorLine joins authors the way the detail screen shows them.
func (b Book) AuthorLine() string {
	return strings.Join(b.Authors, ", ")
}

func (b Book) TranslatorLine() string {
	return strings.Join(b.Translators, ", ")
}

// OnSale — есть ли настоящая скидка.
// API присылает -1, когда цены со скидкой нет.
func (b Book) OnSale() bool {
	return b.SalePrice > 0 && b.SalePrice < b.Price
}

// PublishedOn returns the publication date as YYYY-MM-DD.
// API отдаёт ISO 8601 ("2014-11-17T00:00:00.000+09:00"); если формат другой — возвращаем как есть.
func (b Book) PublishedOn() string {
	if b.Datetime == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, b.Datetime); err == nil {
		return t.Format(time.DateOnly)
	}
	return b.Datetime
}

// Clone — глубокая копия: срезы авторов и переводчиков не разделяются с оригиналом.
func (b Book) Clone() Book {
	b.Authors = slices.Clone(b.Authors)
	b.Translators = slices.Clone(b.Translators)
	return b
}

// CloneBooks копирует список вместе со всеми вложенными срезами. nil остаётся nil.
func CloneBooks(books []Book) []Book {
	if books == nil {
		return nil
	}
	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = b.Clone()
	}
	return out
}

// String — короткая форма для логов.
func (b Book) String() string {
	return fmt.Sprintf("%q (%s)", b.Title, b.AuthorLine())
}

// Meta is parsed but unused by the search pipeline.
type Meta struct {
	IsEnd         bool `json:"is_end"`
	PageableCount int  `json:"pageable_count"`
	TotalCount    int  `json:"total_count"`
}

// SearchResponse — конверт ответа эндпоинта поиска.
type SearchResponse struct {
	Meta      Meta   `json:"meta"`
	Documents []Book `json:"documents"`
}
