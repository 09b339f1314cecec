// Package fileutil copies finished artifacts out of a run directory.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileVerified copies src to dst. The bytes land in dst+".partial"
// first; the partial file is re-read and its size and SHA-256 compared with
// the source before it is renamed to dst. On failure dst is left untouched.
func CopyFileVerified(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	tmp := dst + ".partial"

	size, want, err := copyHashed(src, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	gotSize, got, err := hashFile(tmp)
	if err == nil && gotSize != size {
		err = fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", size, gotSize)
	}
	if err == nil && !bytes.Equal(want, got) {
		err = fmt.Errorf("copy hash mismatch for %s", filepath.Base(dst))
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return err
}

// copyHashed writes src to dst and returns the byte count and digest of what
// was read.
func copyHashed(src, dst string) (int64, []byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, nil, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, nil, err
	}
	h := sha256.New()
	n, err := io.Copy(out, io.TeeReader(in, h))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}

func hashFile(path string) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}
