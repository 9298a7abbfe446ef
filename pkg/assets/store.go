// Package assets gives read-only access to the image pools and JSON array
// pools that templates draw from.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jsonhammer/jsonhammer/pkg/apperr"
	"github.com/jsonhammer/jsonhammer/pkg/observability"
)

const DefaultRoot = "assets"

// Order selects how a directory is enumerated.
type Order int8

const (
	// Unordered returns entries in whatever order the filesystem yields them.
	Unordered Order = iota
	// Sorted returns entries lexicographically by name, so that a position
	// denotes the same file on every lookup.
	Sorted
)

type Store struct {
	fs     afero.Fs
	root   string
	logger *observability.HammerLogger

	// watcher is optional; listed paths are registered with it
	watcher *Watcher

	// arrays caches parsed JSON arrays by normalized path for the
	// lifetime of the store
	arrays map[string][]*structpb.Value
	mutex  sync.RWMutex
}

func NewStore(fs afero.Fs, root string, logger *observability.HammerLogger) *Store {
	if root == "" {
		root = DefaultRoot
	}
	return &Store{
		fs:     fs,
		root:   root,
		logger: logger,
		arrays: make(map[string][]*structpb.Value),
	}
}

func (s *Store) SetWatcher(w *Watcher) {
	s.watcher = w
}

func (s *Store) Root() string { return s.root }

// ImagePath is the slash separated path of name inside the image pool dir,
// relative to the working directory.
func (s *Store) ImagePath(dir, name string) string {
	return filepath.ToSlash(filepath.Join(s.root, dir, name))
}

func imageHint(path string) string {
	return fmt.Sprintf("Make sure %s is a folder containing one or more images.", path)
}

// ListImages enumerates the files of the image pool dir. Sub-directories and
// dot-files are skipped.
func (s *Store) ListImages(dir string, order Order) ([]string, error) {
	path := filepath.Join(s.root, dir)
	display := filepath.ToSlash(path)

	isDir, err := afero.IsDir(s.fs, path)
	if err != nil || !isDir {
		e := apperr.NotFound(display, imageHint(display))
		if err != nil && !os.IsNotExist(err) {
			e.Err = err
		}
		return nil, e
	}
	if s.watcher != nil {
		s.watcher.Add(path)
	}

	var infos []os.FileInfo
	switch order {
	case Sorted:
		infos, err = afero.ReadDir(s.fs, path)
	default:
		infos, err = readDirUnordered(s.fs, path)
	}
	if err != nil {
		return nil, apperr.InvalidFormat(display, "cannot read directory", imageHint(display), err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		names = append(names, info.Name())
	}
	if len(names) == 0 {
		return nil, apperr.EmptyAsset(display, imageHint(display))
	}
	if order == Sorted {
		// afero.ReadDir sorts already; keep the guarantee independent of it
		sort.Strings(names)
	}
	return names, nil
}

func readDirUnordered(fs afero.Fs, path string) ([]os.FileInfo, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func(f afero.File) {
		_ = f.Close()
	}(f)
	return f.Readdir(-1)
}

// NormalizeArrayPath appends the .json extension when it is missing.
func NormalizeArrayPath(path string) string {
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	return path
}

// LoadJSONArray returns the elements of the JSON array stored at path,
// relative to the store root. Results are cached; callers must not modify
// the returned values.
func (s *Store) LoadJSONArray(path string) ([]*structpb.Value, error) {
	path = NormalizeArrayPath(path)

	s.mutex.RLock()
	cached, ok := s.arrays[path]
	s.mutex.RUnlock()
	if ok {
		s.logger.Debug("using cached JSON array", "path", path)
		return cached, nil
	}

	full := filepath.Join(s.root, path)
	display := filepath.ToSlash(full)
	exists, err := afero.Exists(s.fs, full)
	if err != nil || !exists {
		return nil, apperr.NotFound(display, fmt.Sprintf("Make sure %s is a JSON file containing an array.", display))
	}

	s.logger.Debug("loading JSON array from file", "path", display)
	data, err := afero.ReadFile(s.fs, full)
	if err != nil {
		return nil, apperr.InvalidFormat(display, "cannot read file", "", err)
	}

	value := &structpb.Value{}
	if err := protojson.Unmarshal(data, value); err != nil {
		return nil, apperr.InvalidFormat(display, "is not valid JSON", "", err)
	}
	if err := CheckJSONNumbers("$", data); err != nil {
		return nil, apperr.InvalidFormat(display, "unsupported number", InexactNumberHint, err)
	}
	list := value.GetListValue()
	if list == nil {
		return nil, apperr.InvalidFormat(display, "is not a JSON array", "Make sure the file contains a top-level JSON array.", nil)
	}
	if len(list.GetValues()) == 0 {
		return nil, apperr.EmptyAsset(display, "Make sure the JSON array has at least one element.")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if existing, ok := s.arrays[path]; ok {
		return existing, nil
	}
	s.arrays[path] = list.GetValues()
	if s.watcher != nil {
		s.watcher.Add(full)
	}
	return list.GetValues(), nil
}
