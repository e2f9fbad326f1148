package service

import (
	"sync"
	"time"
)

// AttemptLimiter acota los intentos de codigo TOTP por clave ("setup:<id>", "login:<id>").
// Attempt reserva un intento en forma atomica y devuelve false si la ventana ya se agoto;
// Reset se llama tras un codigo valido, asi solo los fallos se acumulan entre logins.
type AttemptLimiter interface {
	Attempt(key string) bool
	Reset(key string)
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

type attemptLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	windows map[string]attemptWindow
	now     func() time.Time
}

// NewAttemptLimiter crea un limiter en memoria de ventana fija.
func NewAttemptLimiter(window time.Duration, max int) AttemptLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{
		window:  window,
		max:     max,
		windows: make(map[string]attemptWindow),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (l *attemptLimiter) Attempt(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = attemptWindow{resetAt: now.Add(l.window)}
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	l.windows[key] = w
	return true
}

func (l *attemptLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}
