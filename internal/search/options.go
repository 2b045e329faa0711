package search

import "time"

// DefaultDebounce — пауза после последнего ввода, после которой запускается поиск.
const DefaultDebounce = 300 * time.Millisecond

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce меняет паузу. Ноль и отрицательные значения игнорируем.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithEventBuffer — сколько событий может ждать в очереди, прежде чем SubmitQuery/SelectBook заблокируются.
func WithEventBuffer(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}
