package images

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrNoImages reports that no usable image was found.
var ErrNoImages = errors.New("no images found")

// Image describes one slideshow picture.
type Image struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

var supportedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Supported reports whether path has a recognised image extension.
func Supported(path string) bool {
	_, ok := supportedExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ContentType returns the MIME type for a supported image path.
func ContentType(path string) string {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}

// Collect expands files and directories into a decoded image list.
func Collect(paths []string) ([]Image, error) {
	var (
		out  []Image
		seen = make(map[string]struct{})
	)
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if _, dup := seen[abs]; dup {
			return nil
		}
		img, err := Inspect(abs)
		if err != nil {
			return err
		}
		seen[abs] = struct{}{}
		out = append(out, img)
		return nil
	}

	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			if !Supported(path) {
				return nil, fmt.Errorf("%s: unsupported image type %q", path, filepath.Ext(path))
			}
			if err := add(path); err != nil {
				return nil, err
			}
			continue
		}
		files, err := scanDir(path)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := add(file); err != nil {
				return nil, err
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoImages
	}
	return out, nil
}

func scanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !Supported(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	SortNatural(names)
	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}

// SortNatural orders names so that embedded numbers compare by value.
func SortNatural(names []string) {
	c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	slices.SortStableFunc(names, func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
}

// Inspect reads the header of a single image.
func Inspect(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Image{}, fmt.Errorf("decode image %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return Image{}, fmt.Errorf("stat image %s: %w", path, err)
	}
	return Image{
		Path:   path,
		Name:   filepath.Base(path),
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Size:   info.Size(),
	}, nil
}

// Reorder moves the images named by 1-based positions in order to the front,
// keeping the rest in their current order. Positions must be unique and in
// range.
func Reorder(list []Image, order []int) ([]Image, error) {
	if len(order) == 0 {
		return slices.Clone(list), nil
	}
	used := make([]bool, len(list))
	out := make([]Image, 0, len(list))
	for _, pos := range order {
		if pos < 1 || pos > len(list) {
			return nil, fmt.Errorf("order position %d out of range 1-%d", pos, len(list))
		}
		if used[pos-1] {
			return nil, fmt.Errorf("order position %d repeated", pos)
		}
		used[pos-1] = true
		out = append(out, list[pos-1])
	}
	for i, img := range list {
		if !used[i] {
			out = append(out, img)
		}
	}
	return out, nil
}

// Shuffle returns a copy of list in a pseudo-random order determined by seed.
func Shuffle(list []Image, seed uint64) []Image {
	out := slices.Clone(list)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
