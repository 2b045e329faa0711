package network

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// NewClient создаёт http.Client для запросов к API поиска.
// Если задан proxyAddr — все соединения идут через этот SOCKS5 прокси.
func NewClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	// 1. Настраиваем транспорт
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	// 2. Прокси (опционально): создаём дилер и подменяем им DialContext
	if proxyAddr != "" {
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy %s: %w", proxyAddr, err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 proxy %s: dialer does not support contexts", proxyAddr)
		}
		transport.Proxy = nil // HTTP_PROXY из окружения тут не нужен
		transport.DialContext = contextDialer.DialContext
	}

	// 3. Возвращаем готовый клиент
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
