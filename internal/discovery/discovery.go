package discovery

import (
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

// Walk lazily yields every supported media file under root, depth first in lexical order.
// In-progress ".<name>.tmp-*" artifacts carry no media extension and are never yielded.
// A walk error is yielded once and ends the sequence. Stopping early stops the walk.
func Walk(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		root = filepath.Clean(root)
		stopped := false

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if !media.IsSupported(path) {
				return nil
			}

			if !yield(path, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}
