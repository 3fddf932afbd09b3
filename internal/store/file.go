package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"ma_bot/pkg/logger"
)

// saveDocument атомарно пишет документ: сначала во временный файл,
// затем rename поверх целевого. Частично записанный файл невозможен.
func saveDocument(path string, v any) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename %s: %w", tmp, err)
	}
	return nil
}

// loadDocument читает документ в v. Отсутствие файла — штатный случай
// первого запуска. Битый JSON тоже не валит процесс: логируем и
// возвращаем false, вызывающий остаётся на дефолте, файл перезапишется
// при первом сохранении.
func loadDocument(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("store: чтение %s: %v", path, err)
		}
		return false
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		logger.Error("store: повреждённый документ %s, стартуем с дефолта: %v", path, err)
		return false
	}
	return true
}
