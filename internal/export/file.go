package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSink writes objects below a local directory, using the key as a relative path.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Destination() string {
	return s.dir
}

// Put requires the root directory to exist, then creates any key subdirectories.
func (s *FileSink) Put(_ context.Context, key string, data []byte, _ string) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return s.classify(key, err)
	}
	if !info.IsDir() {
		return &Error{Kind: KindNotFound, Destination: s.dir, Key: key, Err: fmt.Errorf("%s is not a directory", s.dir)}
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))

	const dirPerm, filePerm = 0o755, 0o644
	if err = os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return s.classify(key, err)
	}
	if err = os.WriteFile(path, data, filePerm); err != nil {
		return s.classify(key, err)
	}

	return nil
}

func (s *FileSink) classify(key string, err error) *Error {
	kind := KindOther
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindForbidden
	}

	return &Error{Kind: kind, Destination: s.dir, Key: key, Err: err}
}
