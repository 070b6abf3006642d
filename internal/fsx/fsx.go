package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Exists reports whether a regular file is present at path.
// A directory at path is a conflict and returned as an error.
func Exists(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err == nil {
		if fi.IsDir() {
			return false, fmt.Errorf("%s: is a directory", path)
		}
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// TempFor reserves a hidden temporary file next to dst (".<name>.tmp-*").
// The name never ends in a media or transcript extension, so directory watchers ignore it.
// The caller fills it and then calls Commit, or Discard on failure.
func TempFor(dst string) (string, error) {
	dir, name := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Commit atomically moves a completed temporary file to dst.
func Commit(tmp, dst string) error {
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	_ = syncDir(filepath.Dir(dst))
	return nil
}

// Discard removes a temporary file, ignoring a missing one.
func Discard(tmp string) {
	_ = os.Remove(tmp)
}

// WriteFileAtomic writes data to dst via a same-directory temp file and rename,
// so readers only ever observe the old file or the complete new one.
func WriteFileAtomic(dst string, data []byte) error {
	return WriteAtomic(dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyAtomic streams r into dst atomically.
func CopyAtomic(dst string, r io.Reader) error {
	return WriteAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

// WriteAtomic lets fill write the content of dst; dst appears only if fill succeeds.
func WriteAtomic(dst string, fill func(w io.Writer) error) error {
	tmp, err := TempFor(dst)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		Discard(tmp)
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		Discard(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		Discard(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		Discard(tmp)
		return err
	}

	return Commit(tmp, dst)
}

func syncDir(dir string) error {
	// directory fsync is not supported on windows
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
