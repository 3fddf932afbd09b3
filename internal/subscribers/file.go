package subscribers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
)

const fileName = "subscribers.json"

// File — файловое хранилище подписчиков, используется когда
// Postgres не сконфигурирован.
type File struct {
	mu   sync.Mutex
	path string
	ids  map[int64]struct{}
}

func NewFile(dataDir string) *File {
	f := &File{
		path: filepath.Join(dataDir, fileName),
		ids:  map[int64]struct{}{},
	}
	data, err := os.ReadFile(f.path)
	if err == nil {
		var ids []int64
		if sonic.Unmarshal(data, &ids) == nil {
			for _, id := range ids {
				f.ids[id] = struct{}{}
			}
		}
	}
	return f
}

func (f *File) Add(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[chatID]; ok {
		return nil
	}
	f.ids[chatID] = struct{}{}
	return f.persist()
}

func (f *File) Remove(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[chatID]; !ok {
		return nil
	}
	delete(f.ids, chatID)
	return f.persist()
}

func (f *File) List(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *File) persist() error {
	ids := make([]int64, 0, len(f.ids))
	for id := range f.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := sonic.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("subscribers: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}
