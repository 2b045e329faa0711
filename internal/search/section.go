package search

import "book_search/internal/models"

type SectionKind int

const (
	SectionRecent SectionKind = iota + 1
	SectionSearch
)

// Заголовки секций, как их видит пользователь.
const (
	RecentTitle = "최근 본 책"
	SearchTitle = "검색 결과"
)

func (k SectionKind) String() string {
	switch k {
	case SectionRecent:
		return "recent"
	case SectionSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Section — группа книг с заголовком для показа.
type Section struct {
	Kind  SectionKind
	Title string
	Items []models.Book
}

// BuildSections — сначала "недавние" (только если не пусто), потом результаты поиска.
// Секция результатов есть всегда, пусть и пустая. Книги копируются целиком.
func BuildSections(recent, results []models.Book) []Section {
	sections := make([]Section, 0, 2)
	if len(recent) > 0 {
		sections = append(sections, Section{
			Kind:  SectionRecent,
			Title: RecentTitle,
			Items: models.CloneBooks(recent),
		})
	}

	items := models.CloneBooks(results)
	if items == nil {
		items = []models.Book{}
	}
	sections = append(sections, Section{
		Kind:  SectionSearch,
		Title: SearchTitle,
		Items: items,
	})
	return sections
}
