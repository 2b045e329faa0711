package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"book_search/internal/config"
	"book_search/internal/db"
	"book_search/internal/httpapi"
	"book_search/internal/logger"
	"book_search/internal/models"
	"book_search/internal/network"
	"book_search/internal/service"
	"book_search/internal/storage"
	"book_search/internal/telegram"
)

func main() {
	// 1. Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.Info("=== BOOK SEARCH STARTING ===")

	// 2. Инициализация сети и клиента поиска
	httpClient, err := network.NewClient(cfg.ProxyAddr, cfg.HTTPTimeout)
	if err != nil {
		logrus.Fatalf("http client: %v", err)
	}
	client := service.NewKakaoClient(httpClient, cfg.BookAPIURL, cfg.AuthScheme, cfg.APIKey)

	// 3. Книжная полка (+ зеркало в SQLite, если задан путь)
	var (
		mirror  storage.ShelfMirror
		initial []models.Book
	)
	if cfg.SQLitePath != "" {
		store, err := db.Open(cfg.SQLitePath)
		if err != nil {
			logrus.Fatalf("database: %v", err)
		}
		defer store.Close()

		initial, err = store.LoadShelf(ctx)
		if err != nil {
			logrus.WithError(err).Warn("could not restore the shelf, starting empty")
			initial = nil
		}
		mirror = store
		logrus.WithField("path", cfg.SQLitePath).Infof("shelf restored with %d books", len(initial))
	}
	shelf := storage.NewShelf(initial, mirror)

	// 4. HTTP API (поиск, полка, /metrics)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(client, shelf).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http api: %v", err)
		}
	}()

	// 5. Telegram-бот (опционально).
	// Start блокирует выполнение, пока не придёт SIGINT/SIGTERM.
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, client, shelf, cfg.Debounce)
		if err != nil {
			logrus.Fatalf("telegram: %v", err)
		}
		logrus.Info("bot started, send it a book title")
		bot.Start(ctx)
	} else {
		logrus.Info("TELEGRAM_TOKEN not set, serving the HTTP API only")
		<-ctx.Done()
	}

	// 6. Аккуратная остановка HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	logrus.Info("stopped")
}
