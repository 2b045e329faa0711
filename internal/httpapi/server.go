package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"book_search/internal/logger"
	"book_search/internal/models"
	"book_search/internal/search"
	"book_search/internal/storage"
)

// maxBookBytes — ограничение на размер книги в POST.
const maxBookBytes = 64 << 10

// Server — JSON API поверх того же поиска и той же полки, что и у бота.
type Server struct {
	searcher search.Searcher
	shelf    *storage.Shelf
}

func New(searcher search.Searcher, shelf *storage.Shelf) *Server {
	return &Server{
		searcher: searcher,
		shelf:    shelf,
	}
}

// Handler — маршруты API. Все запросы проходят через requestLogger (лог + метрики).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/shelf", s.handleShelfList)
	mux.HandleFunc("POST /api/shelf", s.handleShelfAdd)
	mux.HandleFunc("DELETE /api/shelf", s.handleShelfClear)
	mux.Handle("GET /metrics", promhttp.Handler())
	return requestLogger(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleSearch — разовый поиск: без задержки, тот же fail-soft результат, что и у бота.
// Пустой query — пустой список, в API не ходим.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	documents := []models.Book{}
	if query != "" {
		documents = s.searcher.Search(r.Context(), query)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": documents})
}

func (s *Server) handleShelfList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"books": s.shelf.Books()})
}

// handleShelfAdd — POST /api/shelf, тело — книга в том же JSON, что отдаёт поиск.
func (s *Server) handleShelfAdd(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookBytes))
	if err := dec.Decode(&book); err != nil {
		logger.For(r.Context()).WithError(err).Debug("shelf: bad book payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	s.shelf.Add(r.Context(), book)
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "count": s.shelf.Len()})
}

func (s *Server) handleShelfClear(w http.ResponseWriter, r *http.Request) {
	s.shelf.RemoveAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeJSON — хелпер для ответа в JSON
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
