package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jzagalv/ssaa-designer/pkg/observability"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
)

// File is a file-based project store for desktop and CLI usage.
// Projects are stored as JSON files in a config directory.
type File struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFile creates a new file-based project store.
// If baseDir is empty, defaults to ~/.config/ssaa-designer/projects/
func NewFile(baseDir string) (*File, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "ssaa-designer", "projects")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	return &File{baseDir: baseDir}, nil
}

// projectPath maps a project name to its file. Names are escaped so user
// input can never leave baseDir.
func (s *File) projectPath(name string) string {
	return filepath.Join(s.baseDir, url.PathEscape(name)+".json")
}

func (s *File) Load(ctx context.Context, name string) (*schema.ProjectDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Now()
	path := s.projectPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			observability.Store().OnLoad(ctx, "file", name, time.Since(start), ErrNotFound)
			return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
		}
		observability.Store().OnLoad(ctx, "file", name, time.Since(start), err)
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var doc schema.ProjectDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		observability.Store().OnLoad(ctx, "file", name, time.Since(start), err)
		return nil, fmt.Errorf("parse project %q: %w", name, err)
	}
	observability.Store().OnLoad(ctx, "file", name, time.Since(start), nil)
	return &doc, nil
}

func (s *File) Save(ctx context.Context, name string, doc *schema.ProjectDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	path := s.projectPath(name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		observability.Store().OnSave(ctx, "file", name, len(data), time.Since(start), err)
		return fmt.Errorf("write project file: %w", err)
	}
	observability.Store().OnSave(ctx, "file", name, len(data), time.Since(start), nil)
	return nil
}

func (s *File) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.projectPath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove project file: %w", err)
	}
	return nil
}

func (s *File) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read project dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name, err := url.PathUnescape(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *File) Close() error { return nil }

// Path returns the base directory for project files.
func (s *File) Path() string {
	return s.baseDir
}

var _ Store = (*File)(nil)
