package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile returns the hex SHA256 digest of the file at path. The beat cache
// keys timelines on it, so renamed or re-tagged copies of a track share an
// entry only when their bytes match.
func HashFile(path string) (string, error) {
	sum, _, err := digest(path)
	if err != nil {
		return "", err
	}
	return sum, nil
}

// MoveFile renames src to dst. Exports are staged next to the cache, which may
// live on another filesystem than the output directory; in that case the
// file is copied, verified, and the source removed.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFileVerified(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyFileVerified copies src to dst with the source's permission bits, then
// re-reads dst from disk and compares size and SHA256 against src. dst is
// removed when anything fails.
func CopyFileVerified(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()
	if err := copyContents(src, dst, info.Mode().Perm()); err != nil {
		return err
	}

	want, wantSize, err := digest(src)
	if err != nil {
		return fmt.Errorf("hash source: %w", err)
	}
	got, gotSize, err := digest(dst)
	if err != nil {
		return fmt.Errorf("hash copy: %w", err)
	}
	if gotSize != wantSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", wantSize, gotSize)
	}
	if got != want {
		return fmt.Errorf("copy hash mismatch for %s", dst)
	}
	return nil
}

func copyContents(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func digest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
