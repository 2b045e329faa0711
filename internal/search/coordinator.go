package search

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"book_search/internal/logger"
	"book_search/internal/metrics"
	"book_search/internal/models"
	"book_search/internal/storage"
)

var ErrAlreadyRunning = errors.New("coordinator is already running")

// Searcher — поиск без ошибок: при сбое возвращает пустой список.
type Searcher interface {
	Search(ctx context.Context, query string) []models.Book
}

// Observer получает результат работы координатора. Вызовы идут из горутины Run,
// по одному, и не должны надолго блокировать.
type Observer interface {
	SectionsChanged(sections []Section)
	BookConfirmed(book models.Book)
}

type eventKind int

const (
	eventQuery eventKind = iota
	eventSelect
)

type event struct {
	kind  eventKind
	query string
	book  models.Book
}

type searchResult struct {
	generation uint64
	query      string
	books      []models.Book
}

// Coordinator превращает поток ввода в не более чем один актуальный поиск
// и публикует секции "недавние" + "результаты".
//
// Всё состояние принадлежит горутине Run. Ввод идёт через канал,
// поэтому SubmitQuery и SelectBook можно звать из любой горутины.
type Coordinator struct {
	searcher   Searcher
	observer   Observer
	recent     *storage.RecentBooks
	debounce   time.Duration
	bufferSize int

	events  chan event
	done    chan struct{}
	running atomic.Bool
}

// New — координатор со своим списком недавних книг. Запускать через Run.
func New(searcher Searcher, observer Observer, opts ...Option) *Coordinator {
	c := &Coordinator{
		searcher:   searcher,
		observer:   observer,
		recent:     storage.NewRecentBooks(),
		debounce:   DefaultDebounce,
		bufferSize: 16,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.events = make(chan event, c.bufferSize)
	return c
}

// SubmitQuery — текущий текст запроса. Пустая строка сразу очищает результаты.
func (c *Coordinator) SubmitQuery(text string) {
	c.send(event{kind: eventQuery, query: text})
}

func (c *Coordinator) ClearQuery() {
	c.SubmitQuery("")
}

// SelectBook — книга выбрана: попадает в "недавние", наблюдатель получает BookConfirmed.
func (c *Coordinator) SelectBook(book models.Book) {
	c.send(event{kind: eventSelect, book: book})
}

// Done закрывается, когда Run завершился.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// После остановки Run ввод молча отбрасываем.
func (c *Coordinator) send(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Run — главный цикл, работает до отмены ctx. Вызывать можно только один раз.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	var (
		debounce   *time.Timer
		debounceC  <-chan time.Time
		pending    string
		generation uint64
		cancel     = context.CancelFunc(func() {})
		current    []models.Book
		results    = make(chan searchResult)
	)

	stopDebounce := func() {
		if debounce != nil {
			debounce.Stop()
		}
		debounceC = nil
	}
	defer func() {
		stopDebounce()
		cancel()
	}()

	// emit — пересобрать секции и отдать наблюдателю
	emit := func() {
		c.observer.SectionsChanged(BuildSections(c.recent.Books(), current))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-c.events:
			switch ev.kind {
			case eventQuery:
				// 1. Пустой запрос: очищаем сразу.
				// Отменяет и отложенный поиск, и тот, что уже идёт.
				if ev.query == "" {
					stopDebounce()
					generation++
					cancel()
					pending = ""
					current = []models.Book{}
					emit()
					continue
				}
				// 2. Непустой: перезапускаем таймер, ищем только после паузы
				pending = ev.query
				stopDebounce()
				debounce = time.NewTimer(c.debounce)
				debounceC = debounce.C

			// 3. Выбор книги: "недавние", подтверждение, сразу новые секции
			case eventSelect:
				c.recent.Add(ev.book)
				c.observer.BookConfirmed(ev.book)
				emit()
			}

		// 4. Пауза прошла: новое поколение, старый поиск отменяем
		case <-debounceC:
			debounceC = nil
			generation++
			cancel()

			var searchCtx context.Context
			searchCtx, cancel = context.WithCancel(logger.WithNewID(ctx))
			logger.For(searchCtx).WithFields(logrus.Fields{
				"query":      pending,
				"generation": generation,
			}).Debug("search.start")

			go c.search(searchCtx, generation, pending, results)

		// 5. Пришёл результат. Не нашего поколения — устарел, выбрасываем
		case res := <-results:
			if res.generation != generation {
				metrics.SearchesSupersededTotal.Inc()
				logger.For(ctx).WithFields(logrus.Fields{
					"query":      res.query,
					"generation": res.generation,
					"current":    generation,
				}).Debug("search.superseded")
				continue
			}
			current = res.books
			emit()
		}
	}
}

// search — один поиск в своей горутине. Если Run уже вышел, результат никому не нужен.
func (c *Coordinator) search(ctx context.Context, generation uint64, query string, results chan<- searchResult) {
	books := c.searcher.Search(ctx, query)
	select {
	case results <- searchResult{generation: generation, query: query, books: books}:
	case <-c.done:
	}
}
