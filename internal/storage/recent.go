package storage

import "book_search/internal/models"

// RecentLimit — сколько недавно просмотренных книг храним.
const RecentLimit = 10

// RecentBooks — недавно выбранные книги, новые сначала, без повторов по названию.
// Принадлежит одной сессии поиска (одной горутине), мьютекса нет.
type RecentBooks struct {
	books []models.Book
	limit int
}

func NewRecentBooks() *RecentBooks {
	return &RecentBooks{limit: RecentLimit}
}

// Add ставит книгу первой: старую запись с тем же названием убираем,
// всё, что не влезло в лимит, отбрасываем.
func (r *RecentBooks) Add(book models.Book) {
	next := make([]models.Book, 0, min(len(r.books)+1, r.limit))
	next = append(next, book.Clone())
	for _, b := range r.books {
		if len(next) == r.limit {
			break
		}
		if b.SameTitle(book) {
			continue
		}
		next = append(next, b)
	}
	r.books = next
}

// Books — глубокая копия списка, новые сначала.
func (r *RecentBooks) Books() []models.Book {
	out := models.CloneBooks(r.books)
	if out == nil {
		out = []models.Book{}
	}
	return out
}

func (r *RecentBooks) Len() int { return len(r.books) }
