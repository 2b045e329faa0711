package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"book_search/internal/logger"
	"book_search/internal/metrics"
	"book_search/internal/models"
)

// Классы ошибок Fetch. Search сворачивает любую из них в пустой результат.
var (
	ErrEndpoint  = errors.New("invalid search endpoint")
	ErrTransport = errors.New("search transport failed")
	ErrStatus    = errors.New("search endpoint returned an error status")
	ErrDecode    = errors.New("search response could not be decoded")
)

// titleTarget — ищем только по названию книги.
const titleTarget = "title"

// maxBodyBytes — больше этого из тела ответа не читаем.
const maxBodyBytes = 4 << 20

// KakaoClient — клиент API поиска книг.
type KakaoClient struct {
	httpClient *http.Client
	baseURL    string
	authScheme string
	apiKey     string
}

func NewKakaoClient(client *http.Client, baseURL, authScheme, apiKey string) *KakaoClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &KakaoClient{
		httpClient: client,
		baseURL:    baseURL,
		authScheme: authScheme,
		apiKey:     apiKey,
	}
}

// Search ищет книги по названию. Ошибок не возвращает: при любом сбое — пустой список.
func (c *KakaoClient) Search(ctx context.Context, query string) []models.Book {
	ctx = logger.WithNewID(ctx)
	books, err := c.Fetch(ctx, query)
	return Collapse(ctx, books, err)
}

// Fetch делает один GET к эндпоинту поиска и возвращает документы.
// Без кеша и без повторов.
func (c *KakaoClient) Fetch(ctx context.Context, query string) ([]models.Book, error) {
	defer logger.Track(ctx, "book search "+query)()
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	// 1. Подготовка запроса
	target, err := c.requestURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndpoint, err)
	}
	req.Header.Set("Authorization", c.authScheme+" "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	logger.For(ctx).WithField("url", target).Debug("search.request")

	// 2. Выполнение запроса (Сеть)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	// 3. Не-2xx — ошибка. Тело дочитываем, чтобы соединение вернулось в пул
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	// 4. Разбор JSON. Если тело оборвалось из-за отмены — это ошибка сети, а не формата
	var envelope models.SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&envelope); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	logger.For(ctx).WithFields(logrus.Fields{
		"documents": len(envelope.Documents),
		"total":     envelope.Meta.TotalCount,
	}).Debug("search.response")

	return envelope.Documents, nil
}

// requestURL — base?query=<q>&target=title. Нужны схема http(s) и хост.
func (c *KakaoClient) requestURL(query string) (string, error) {
	base := strings.TrimSpace(c.baseURL)
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrEndpoint, base)
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("target", titleTarget)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Collapse — граница "fail-soft": ошибка превращается в пустой (не nil) список.
// Отмену пишем в debug: это значит, что поиск устарел, а не что что-то сломалось.
func Collapse(ctx context.Context, books []models.Book, err error) []models.Book {
	outcome := Outcome(err)
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()

	if err == nil {
		if books == nil {
			return []models.Book{}
		}
		return books
	}

	entry := logger.For(ctx).WithError(err).WithField("outcome", outcome)
	if outcome == metrics.OutcomeCanceled {
		entry.Debug("search superseded")
	} else {
		entry.Warn("search failed, showing no results")
	}
	return []models.Book{}
}

// Outcome — метка метрики для ошибки Fetch.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case errors.Is(err, ErrEndpoint):
		return metrics.OutcomeEndpoint
	case errors.Is(err, ErrStatus):
		return metrics.OutcomeStatus
	case errors.Is(err, ErrDecode):
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeTransport
	}
}
