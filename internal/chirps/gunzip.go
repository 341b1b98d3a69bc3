package chirps

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Decompress gunzips the file at path into a new temporary file within
// tmpDir (the system default when empty) and returns its name. The caller
// removes the file when done with it.
func Decompress(path, tmpDir string) (_ string, err error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()

	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	out, err := os.CreateTemp(tmpDir, "*-"+base)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out.Name())
		}
	}()

	if _, err := io.Copy(out, zr); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return out.Name(), nil
}
