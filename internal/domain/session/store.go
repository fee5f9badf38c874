package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

// ErrSessionNotFound is returned for an unknown or malformed session id
var ErrSessionNotFound = errors.New("session not found")

const fileExt = ".session"

// Store persists encoded sessions
type Store interface {
	Put(ctx context.Context, sid id.SessionID, data []byte) error
	Get(ctx context.Context, sid id.SessionID) ([]byte, error)
	Delete(ctx context.Context, sid id.SessionID) error
	List(ctx context.Context) ([]id.SessionID, error)
}

// FileStore keeps one file per session in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session store %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes data through a temp file so readers never see a partial session
func (s *FileStore) Put(_ context.Context, sid id.SessionID, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write session %s: %w", sid, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session %s: %w", sid, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session %s: %w", sid, err)
	}
	if err := os.Rename(tmp.Name(), s.path(sid)); err != nil {
		return fmt.Errorf("write session %s: %w", sid, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, sid id.SessionID) ([]byte, error) {
	data, err := os.ReadFile(s.path(sid))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read session %s: %w", sid, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sid, err)
	}
	return data, nil
}

func (s *FileStore) Delete(_ context.Context, sid id.SessionID) error {
	err := os.Remove(s.path(sid))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", sid, ErrSessionNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sid, err)
	}
	return nil
}

// List returns the stored session ids, oldest first
func (s *FileStore) List(_ context.Context) ([]id.SessionID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var out []id.SessionID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		sid, err := id.ParseSessionID(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *FileStore) path(sid id.SessionID) string {
	return filepath.Join(s.dir, string(sid)+fileExt)
}
