package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book_search/internal/models"
	"book_search/internal/storage"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "shelf.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestShelfRoundTripNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := openTemp(t)

	harry := models.Book{
		Title:        "해리포터",
		Authors:      []string{"J.K. 롤링"},
		Contents:     "마법",
		Price:        10000,
		SalePrice:    9000,
		ThumbnailURL: "https://img/harry.jpg",
		ISBN:         "8983920726",
		Publisher:    "문학수첩",
		URL:          "https://search.daum.net/book?q=1",
		Translators:  []string{"강동혁"},
		Status:       "정상판매",
		Datetime:     "2014-11-17T00:00:00.000+09:00",
	}
	untitled := models.Book{Price: 500}

	require.NoError(t, store.AppendShelfBook(ctx, harry))
	require.NoError(t, store.AppendShelfBook(ctx, untitled))

	books, err := store.LoadShelf(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Book{untitled, harry}, books)
}

func TestClearShelf(t *testing.T) {
	ctx := context.Background()
	store, _ := openTemp(t)

	require.NoError(t, store.AppendShelfBook(ctx, models.Book{Title: "a"}))
	require.NoError(t, store.ClearShelf(ctx))

	books, err := store.LoadShelf(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestShelfSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openTemp(t)

	shelf := storage.NewShelf(nil, store)
	shelf.Add(ctx, models.Book{Title: "첫 책"})
	shelf.Add(ctx, models.Book{Title: "둘째 책"})
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	books, err := reopened.LoadShelf(ctx)
	require.NoError(t, err)

	restored := storage.NewShelf(books, reopened)
	assert.Equal(t, shelf.Books(), restored.Books())
}
