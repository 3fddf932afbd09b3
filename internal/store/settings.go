package store

import (
	"path/filepath"
	"sync"

	"ma_bot/internal/models"
)

const settingsFile = "trade_settings.json"

// Settings — настройки автоторговли с сохранением на диск после
// каждой мутации. Чтения отдают глубокую копию.
type Settings struct {
	mu   sync.RWMutex
	path string
	cur  models.TradeSettings
}

func NewSettings(dataDir string) *Settings {
	s := &Settings{
		path: filepath.Join(dataDir, settingsFile),
		cur:  models.DefaultTradeSettings(),
	}
	var doc models.TradeSettings
	if loadDocument(s.path, &doc) {
		if doc.Mode == "" {
			doc.Mode = models.SettingGlobal
		}
		if doc.PerSymbol == nil {
			doc.PerSymbol = map[string]models.SymbolSettings{}
		}
		s.cur = doc
	}
	return s
}

func (s *Settings) Get() models.TradeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Update применяет мутацию под замком и сохраняет результат.
func (s *Settings) Update(fn func(*models.TradeSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.Clone()
	fn(&next)
	s.cur = next
	return saveDocument(s.path, s.cur)
}

func (s *Settings) AutoTrade() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AutoTrade
}
