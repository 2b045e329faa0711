package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"book_search/internal/models"
)

// Store — зеркало книжной полки в SQLite, чтобы она переживала перезапуск.
// Гарантий сверх того, что SQLite даёт по умолчанию, нет.
type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) базу и приводит схему в актуальное состояние.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty SQLite path")
	}

	// 1. Папка под файл базы
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// 2. Подключение
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Одно соединение — записи идут по порядку
	db.SetMaxOpenConns(1)

	// 3. PRAGMA и миграция
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragma := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, stmt := range pragma {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("pragma: %w", err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS shelf_books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL DEFAULT '',
	authors TEXT NOT NULL DEFAULT '[]',
	contents TEXT NOT NULL DEFAULT '',
	price INTEGER NOT NULL DEFAULT 0,
	sale_price INTEGER NOT NULL DEFAULT 0,
	thumbnail TEXT NOT NULL DEFAULT '',
	isbn TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	translators TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT '',
	published TEXT NOT NULL DEFAULT '',
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// AppendShelfBook — сохраняет книгу как самую новую на полке.
// Списки (авторы, переводчики) храним как JSON-массивы.
func (s *Store) AppendShelfBook(ctx context.Context, book models.Book) error {
	authors, err := json.Marshal(nonNil(book.Authors))
	if err != nil {
		return fmt.Errorf("encode authors: %w", err)
	}
	translators, err := json.Marshal(nonNil(book.Translators))
	if err != nil {
		return fmt.Errorf("encode translators: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO shelf_books (title, authors, contents, price, sale_price, thumbnail, isbn, publisher, url,
	translators, status, published)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, book.Title, string(authors), book.Contents, book.Price, book.SalePrice, book.ThumbnailURL,
		book.ISBN, book.Publisher, book.URL, string(translators), book.Status, book.Datetime)
	if err != nil {
		return fmt.Errorf("insert shelf book: %w", err)
	}
	return nil
}

// ClearShelf — удалить всё с полки.
func (s *Store) ClearShelf(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shelf_books`); err != nil {
		return fmt.Errorf("clear shelf: %w", err)
	}
	return nil
}

// LoadShelf — полка из базы, новые сначала.
func (s *Store) LoadShelf(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT title, authors, contents, price, sale_price, thumbnail, isbn, publisher, url,
	translators, status, published
FROM shelf_books
ORDER BY id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("read shelf: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var (
			book                 models.Book
			authors, translators string
		)
		if err := rows.Scan(&book.Title, &authors, &book.Contents, &book.Price, &book.SalePrice,
			&book.ThumbnailURL, &book.ISBN, &book.Publisher, &book.URL,
			&translators, &book.Status, &book.Datetime); err != nil {
			return nil, fmt.Errorf("scan shelf book: %w", err)
		}
		if book.Authors, err = decodeList(authors); err != nil {
			return nil, fmt.Errorf("decode authors of %q: %w", book.Title, err)
		}
		if book.Translators, err = decodeList(translators); err != nil {
			return nil, fmt.Errorf("decode translators of %q: %w", book.Title, err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return books, nil
}

// decodeList — обратная операция к nonNil: пустой массив превращаем обратно в nil.
func decodeList(raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
