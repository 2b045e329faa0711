package storage

import (
	"context"
	"sync"

	"book_search/internal/logger"
	"book_search/internal/metrics"
	"book_search/internal/models"
)

// ShelfMirror получает каждое изменение полки (например, SQLite).
// Сохранение best-effort: ошибки зеркала только логируем.
type ShelfMirror interface {
	AppendShelfBook(ctx context.Context, book models.Book) error
	ClearShelf(ctx context.Context) error
}

// Shelf — книжная полка: без лимита, новые сначала, дубликаты разрешены.
// Одна полка на весь процесс (бот, HTTP API), поэтому всё под мьютексом.
type Shelf struct {
	mu     sync.RWMutex
	books  []models.Book
	mirror ShelfMirror
}

// NewShelf — полка с начальным содержимым (новые сначала). mirror может быть nil.
func NewShelf(initial []models.Book, mirror ShelfMirror) *Shelf {
	books := models.CloneBooks(initial)
	if books == nil {
		books = []models.Book{}
	}
	metrics.ShelfBooks.Set(float64(len(books)))
	return &Shelf{books: books, mirror: mirror}
}

// Add кладёт книгу первой на полку.
func (s *Shelf) Add(ctx context.Context, book models.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books = append([]models.Book{book.Clone()}, s.books...)
	metrics.ShelfBooks.Set(float64(len(s.books)))

	if s.mirror != nil {
		if err := s.mirror.AppendShelfBook(ctx, book); err != nil {
			logger.For(ctx).WithError(err).Warn("shelf mirror append failed")
		}
	}
}

// RemoveAll — очистить полку целиком.
func (s *Shelf) RemoveAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books = []models.Book{}
	metrics.ShelfBooks.Set(0)

	if s.mirror != nil {
		if err := s.mirror.ClearShelf(ctx); err != nil {
			logger.For(ctx).WithError(err).Warn("shelf mirror clear failed")
		}
	}
}

// Books — глубокая копия полки, новые сначала.
func (s *Shelf) Books() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.CloneBooks(s.books)
}

func (s *Shelf) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}
