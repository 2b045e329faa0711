package telegram

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"book_search/internal/models"
	"book_search/internal/search"
)

// maxCards — для скольких последних карточек в чате ещё работает кнопка "담기".
const maxCards = 50

// session — состояние поиска одного чата. Это Observer координатора:
// методы зовутся из горутины координатора, а бот читает состояние из цикла обновлений.
type session struct {
	chatID      int64
	bot         *Bot
	coordinator *search.Coordinator

	mu            sync.Mutex
	sections      []search.Section
	listMessageID int
	cards         map[int]models.Book
	cardOrder     []int
}

func newSession(chatID int64, bot *Bot) *session {
	return &session{
		chatID: chatID,
		bot:    bot,
		cards:  make(map[int]models.Book),
	}
}

// resetList — следующее обновление секций уйдёт новым сообщением.
func (s *session) resetList() {
	s.mu.Lock()
	s.listMessageID = 0
	s.mu.Unlock()
}

// bookFor — книга по кнопке выбора. Кнопки старых сообщений со списком не действуют.
func (s *session) bookFor(messageID int, kind search.SectionKind, index int) (models.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if messageID != s.listMessageID {
		return models.Book{}, false
	}
	return bookAt(s.sections, kind, index)
}

// cardBook — книга, чья карточка в сообщении messageID
func (s *session) cardBook(messageID int) (models.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.cards[messageID]
	return book, ok
}

func (s *session) rememberCard(messageID int, book models.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards[messageID] = book
	s.cardOrder = append(s.cardOrder, messageID)
	if len(s.cardOrder) > maxCards {
		delete(s.cards, s.cardOrder[0])
		s.cardOrder = s.cardOrder[1:]
	}
}

// SectionsChanged правит текущее сообщение со списком или отправляет новое.
// Мьютекс держим и во время отправки: иначе нажатие кнопки обгонит id сообщения.
func (s *session) SectionsChanged(sections []search.Section) {
	text, rows := renderSections(sections)
	log := s.bot.log.WithField("chat_id", s.chatID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = sections

	// 1. Список уже есть — правим на месте ("message is not modified" не ошибка)
	if s.listMessageID != 0 {
		var edit tgbotapi.EditMessageTextConfig
		if len(rows) > 0 {
			edit = tgbotapi.NewEditMessageTextAndMarkup(s.chatID, s.listMessageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
		} else {
			edit = tgbotapi.NewEditMessageText(s.chatID, s.listMessageID, text)
		}
		if _, err := s.bot.client.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
			log.WithError(err).Warn("edit list message")
		}
		return
	}

	// 2. Иначе — новое сообщение, запоминаем его id
	msg := tgbotapi.NewMessage(s.chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	sent, err := s.bot.client.Send(msg)
	if err != nil {
		log.WithError(err).Warn("send list message")
		return
	}
	s.listMessageID = sent.MessageID
}

// BookConfirmed открывает карточку книги. Обложку Telegram скачивает сам;
// если не смог — отправляем карточку текстом.
func (s *session) BookConfirmed(book models.Book) {
	caption := bookCard(book)
	log := s.bot.log.WithField("chat_id", s.chatID)

	if book.ThumbnailURL != "" {
		photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileURL(book.ThumbnailURL))
		photo.Caption = caption
		photo.ReplyMarkup = cardKeyboard()
		sent, err := s.bot.client.Send(photo)
		if err == nil {
			s.rememberCard(sent.MessageID, book)
			return
		}
		log.WithError(err).Debug("thumbnail rejected, sending text card")
	}

	msg := tgbotapi.NewMessage(s.chatID, caption)
	msg.ReplyMarkup = cardKeyboard()
	sent, err := s.bot.client.Send(msg)
	if err != nil {
		log.WithError(err).Warn("send book card")
		return
	}
	s.rememberCard(sent.MessageID, book)
}
