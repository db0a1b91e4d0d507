package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type LocalSource struct {
	dir  string
	fsys fs.FS
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir, fsys: os.DirFS(dir)}
}

func (s *LocalSource) Location() string { return "file://" + s.dir }

func (s *LocalSource) Read(_ context.Context, name string) ([]byte, error) {
	b, err := fs.ReadFile(s.fsys, filepath.ToSlash(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return b, err
}

func (s *LocalSource) List(_ context.Context, ext string) ([]string, error) {
	var names []string
	err := fs.WalkDir(s.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			names = append(names, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	slices.Sort(names)
	return names, err
}
