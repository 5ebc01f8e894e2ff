package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited se devuelve cuando un email pidió demasiados códigos en la ventana.
var ErrRateLimited = errors.New("too many requests")

// OTPRateLimiter limita la frecuencia de solicitudes de OTP por clave.
type OTPRateLimiter interface {
	Allow(key string) bool
}

type otpLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type otpRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	entries   map[string]*otpLimiterEntry
	lastPrune time.Time
	now       func() time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria: max solicitudes por window,
// recargando de forma continua.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window:  window,
		max:     max,
		entries: make(map[string]*otpLimiterEntry),
		now:     time.Now,
	}
}

func (l *otpRateLimiter) Allow(key string) bool {
	key = normalizeEmail(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	entry, ok := l.entries[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(l.max))
		entry = &otpLimiterEntry{limiter: rate.NewLimiter(every, l.max)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// prune descarta claves sin actividad durante una ventana completa; su cubo ya está lleno.
func (l *otpRateLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	cutoff := now.Add(-l.window)
	for key, entry := range l.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
