// Package notify recoge los avisos que las acciones producen para el usuario.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Message es un aviso listo para mostrarse.
type Message struct {
	Level   Level     `json:"level"`
	Text    string    `json:"text"`
	Created time.Time `json:"created_at"`
}

// Notifier recibe avisos. Nunca bloquea ni falla.
type Notifier interface {
	Success(text string)
	Info(text string)
	Error(text string)
}

// Queue guarda los últimos avisos de un contenedor y los registra con zap.
type Queue struct {
	mu       sync.Mutex
	logger   *zap.Logger
	capacity int
	items    []Message
	now      func() time.Time
}

// NewQueue crea una cola que conserva como máximo capacity avisos; los más viejos se descartan.
func NewQueue(logger *zap.Logger, capacity int) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = 20
	}
	return &Queue{
		logger:   logger,
		capacity: capacity,
		now:      time.Now,
	}
}

func (q *Queue) Success(text string) { q.push(LevelSuccess, text) }
func (q *Queue) Info(text string)    { q.push(LevelInfo, text) }
func (q *Queue) Error(text string)   { q.push(LevelError, text) }

func (q *Queue) push(level Level, text string) {
	msg := Message{Level: level, Text: text, Created: q.now().UTC()}

	if level == LevelError {
		q.logger.Warn("notification", zap.String("level", string(level)), zap.String("text", text))
	} else {
		q.logger.Debug("notification", zap.String("level", string(level)), zap.String("text", text))
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = append(q.items[:0], q.items[len(q.items)-q.capacity+1:]...)
	}
	q.items = append(q.items, msg)
}

// Drain devuelve los avisos pendientes en orden de llegada y vacía la cola.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Message, len(q.items))
	copy(out, q.items)
	q.items = q.items[:0]
	return out
}

// Len devuelve la cantidad de avisos pendientes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
