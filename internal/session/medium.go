package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Medium is the key/value store a session Store persists into. Implementations
// must be safe for concurrent use. Get reports ok=false for absent keys.
type Medium interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryMedium is an in-memory Medium, used in tests
type MemoryMedium struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryMedium creates an empty in-memory medium
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{values: make(map[string]string)}
}

func (m *MemoryMedium) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryMedium) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileMedium persists keys as a single JSON document on disk, so a session
// survives process restarts. Writes go through a temp file and rename.
type FileMedium struct {
	path string
	mu   sync.Mutex

	watchStop chan struct{}
	watchOnce sync.Once
}

// NewFileMedium creates a file-backed medium at path. The file is created on
// first write; a missing file reads as empty.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

func (f *FileMedium) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *FileMedium) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.save(doc)
}

func (f *FileMedium) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.save(doc)
}

// load reads the document; a missing or empty file yields an empty map and a
// corrupt file is treated as empty so one bad write cannot wedge the medium.
func (f *FileMedium) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	doc := map[string]string{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return map[string]string{}, nil
	}
	return doc, nil
}

func (f *FileMedium) save(doc map[string]string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Watch polls the file's modification time and invokes onChange when another
// process rewrites it. Returns a stop function. Watch may be called once.
func (f *FileMedium) Watch(interval time.Duration, onChange func()) (stop func()) {
	f.watchOnce.Do(func() {
		f.watchStop = make(chan struct{})
		go f.watch(interval, onChange)
	})
	return func() {
		if f.watchStop != nil {
			select {
			case <-f.watchStop:
			default:
				close(f.watchStop)
			}
		}
	}
}

func (f *FileMedium) watch(interval time.Duration, onChange func()) {
	var lastMod time.Time
	if info, err := os.Stat(f.path); err == nil {
		lastMod = info.ModTime()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-f.watchStop:
			return
		case <-ticker.C:
			info, err := os.Stat(f.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				onChange()
			}
		}
	}
}
