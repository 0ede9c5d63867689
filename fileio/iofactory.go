package fileio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("fileio: invalid path")
	ErrNotRegular  = errors.New("fileio: not a regular file")
)

// IOFactory opens the files a session transmits from or receives into
type IOFactory interface {
	OpenSource(root, name string) (*os.File, error)
	CreateSink(dir, name string) (*os.File, error)
}

// OSFactory is the default factory backed by the local file system
type OSFactory struct{}

// OpenSource opens name relative to root for reading. Names that would leave root are refused.
func (OSFactory) OpenSource(root, name string) (*os.File, error) {
	path, err := Resolve(root, name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, ErrNotRegular
	}
	return file, nil
}

// CreateSink creates (or truncates) the base name of name inside dir
func (OSFactory) CreateSink(dir, name string) (*os.File, error) {
	base := filepath.Base(filepath.FromSlash(name))
	if base == "." || base == ".." || base == string(os.PathSeparator) {
		return nil, ErrInvalidPath
	}
	return os.Create(filepath.Join(dir, base))
}

// Resolve maps a slash-separated request name onto a path below root
func Resolve(root, name string) (string, error) {
	// Requests may come from any OS.
	name = strings.ReplaceAll(name, "\\", "/")
	local, err := filepath.Localize(name)
	if err != nil {
		return "", ErrInvalidPath
	}
	// We have strayed from the path of light.
	if !filepath.IsLocal(local) {
		return "", ErrInvalidPath
	}
	return filepath.Join(root, local), nil
}
