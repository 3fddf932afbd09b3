package service

import (
	"sync"

	"ma_bot/internal/models"
)

// sessionStore — состояния диалогов по чатам.
type sessionStore struct {
	mu sync.Mutex
	m  map[int64]*models.DialogState
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[int64]*models.DialogState)}
}

func (t *Telegram) session(chatID int64) *models.DialogState {
	t.sessions.mu.Lock()
	defer t.sessions.mu.Unlock()
	s, ok := t.sessions.m[chatID]
	if !ok {
		s = &models.DialogState{Step: models.StepIdle}
		t.sessions.m[chatID] = s
	}
	return s
}

func (t *Telegram) setStep(chatID int64, step models.DialogStep) {
	s := t.session(chatID)
	t.sessions.mu.Lock()
	defer t.sessions.mu.Unlock()
	s.Step = step
}

func (t *Telegram) resetSession(chatID int64) {
	t.sessions.mu.Lock()
	defer t.sessions.mu.Unlock()
	delete(t.sessions.m, chatID)
}
