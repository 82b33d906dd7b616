package source

import (
	"errors"
	"fmt"
	"net"
)

// FetchError любая неудача обращения к внешнему источнику: сеть, таймаут,
// неуспешный HTTP-статус, конверт без status=success, неразбираемое тело,
// открытый breaker.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Reason     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Source
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": http %d", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Timeout: сработал таймаут запроса.
func (e *FetchError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IsFetchError проверяет цепочку err на *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
