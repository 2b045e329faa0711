package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"book_search/internal/search"
	"book_search/internal/storage"
)

// sender — та часть tgbotapi.BotAPI, через которую бот говорит с Telegram (в тестах — фейк).
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot — Telegram-интерфейс поиска: у каждого чата своя сессия, полка общая.
type Bot struct {
	api      *tgbotapi.BotAPI
	client   sender
	searcher search.Searcher
	shelf    *storage.Shelf
	debounce time.Duration
	log      *logrus.Entry

	ctx        context.Context
	sessions   map[int64]*session
	sessionsMu sync.Mutex
}

// NewBot авторизуется в Telegram.
func NewBot(token string, searcher search.Searcher, shelf *storage.Shelf, debounce time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false

	b := newBot(api, searcher, shelf, debounce)
	b.api = api
	b.log.Infof("authorized as %s", api.Self.UserName)
	return b, nil
}

func newBot(client sender, searcher search.Searcher, shelf *storage.Shelf, debounce time.Duration) *Bot {
	return &Bot{
		client:   client,
		searcher: searcher,
		shelf:    shelf,
		debounce: debounce,
		log:      logrus.WithField("component", "telegram"),
		ctx:      context.Background(),
		sessions: make(map[int64]*session),
	}
}

// Start — главный цикл (long polling), до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.run(ctx, updates)
}

func (b *Bot) run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	b.sessionsMu.Lock()
	b.ctx = ctx
	b.sessionsMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	// 1. Текстовое сообщение (Поиск)
	case update.Message != nil:
		b.handleMessage(update.Message)
	// 2. Отредактированный запрос — ищем заново
	case update.EditedMessage != nil:
		b.handleMessage(update.EditedMessage)
	// 3. Нажатие на кнопку (выбор, "담기", очистка полки)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

// handleMessage — обработка текста: команды или запрос поиска
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.sendText(chatID, "안녕하세요! 찾고 싶은 책 제목을 보내 주세요.\n/shelf — 내 책장\n/clear — 검색 지우기")
		case "shelf":
			b.sendShelf(chatID)
		case "clear":
			s := b.session(chatID)
			s.resetList()
			s.coordinator.ClearQuery()
		default:
			b.sendText(chatID, "모르는 명령이에요. /start 를 보내 보세요.")
		}
		return
	}

	// Новый запрос — список уйдёт новым сообщением, старые кнопки станут неактуальны
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}

	s := b.session(chatID)
	s.resetList()
	s.coordinator.SubmitQuery(query)
}

// handleCallback — обработка нажатия на кнопку
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	data := cb.Data

	switch {
	// Выбор книги из списка: показываем карточку
	case strings.HasPrefix(data, cbSelectPrefix):
		kind, index, ok := parseSelectData(data)
		if !ok {
			b.log.WithField("data", data).Warn("invalid select callback")
			b.answer(cb.ID, "")
			return
		}
		book, ok := b.session(chatID).bookFor(messageID, kind, index)
		if !ok {
			b.answer(cb.ID, "목록이 바뀌었어요. 다시 골라 주세요.")
			return
		}
		b.answer(cb.ID, "")
		b.session(chatID).coordinator.SelectBook(book)

	// "담기" на карточке: книга на полку
	case data == cbAddToShelf:
		book, ok := b.session(chatID).cardBook(messageID)
		if !ok {
			b.answer(cb.ID, "책 정보를 찾을 수 없어요.")
			return
		}
		b.shelf.Add(b.context(), book)
		b.answer(cb.ID, "책장에 담았어요.")

	// "전체 삭제": очищаем полку и правим сообщение с ней
	case data == cbClearShelf:
		b.shelf.RemoveAll(b.context())
		b.answer(cb.ID, "책장을 비웠어요.")
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "책장이 비어 있어요.")
		if _, err := b.client.Send(edit); err != nil {
			b.log.WithError(err).Debug("edit shelf message")
		}

	default:
		b.answer(cb.ID, "")
	}
}

// session — сессия чата; при первом обращении создаём её и запускаем координатор.
func (b *Bot) session(chatID int64) *session {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	if s, ok := b.sessions[chatID]; ok {
		return s
	}

	s := newSession(chatID, b)
	s.coordinator = search.New(b.searcher, s, search.WithDebounce(b.debounce))
	b.sessions[chatID] = s

	ctx := b.ctx
	go func() {
		if err := s.coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.log.WithError(err).WithField("chat_id", chatID).Error("search session stopped")
		}
	}()
	return s
}

func (b *Bot) context() context.Context {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	return b.ctx
}

// sendShelf — содержимое полки одним сообщением
func (b *Bot) sendShelf(chatID int64) {
	text, markup := renderShelf(b.shelf.Books())
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.client.Send(msg); err != nil {
		b.log.WithError(err).Warn("send shelf")
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.client.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.WithError(err).Debug("answer callback")
	}
}

// sendText — хелпер для отправки текста
func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.client.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.WithError(err).Warn("send message")
	}
}
