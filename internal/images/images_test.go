package images

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"beatframe/internal/testsupport"
)

func names(list []Image) []string {
	out := make([]string, len(list))
	for i, img := range list {
		out[i] = img.Name
	}
	return out
}

func TestCollectDirectoryNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame10.png", "frame2.jpg", "Frame1.gif", "frame3.jpeg"} {
		testsupport.WriteImage(t, filepath.Join(dir, name), 8, 6)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteImage(t, filepath.Join(dir, "nested", "frame0.png"), 4, 4)

	list, err := Collect([]string{dir})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []string{"Frame1.gif", "frame2.jpg", "frame3.jpeg", "frame10.png"}
	if !slices.Equal(names(list), want) {
		t.Fatalf("unexpected order %v, want %v", names(list), want)
	}
	formats := []string{"gif", "jpeg", "jpeg", "png"}
	for i, img := range list {
		if img.Width != 8 || img.Height != 6 {
			t.Fatalf("%s: unexpected size %dx%d", img.Name, img.Width, img.Height)
		}
		if img.Format != formats[i] {
			t.Fatalf("%s: unexpected format %q", img.Name, img.Format)
		}
		if img.Size <= 0 || !filepath.IsAbs(img.Path) {
			t.Fatalf("%s: unexpected metadata %+v", img.Name, img)
		}
	}
}

func TestCollectKeepsArgumentOrderAndDedupes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "b.png")
	b := filepath.Join(dir, "a.png")
	testsupport.WriteImage(t, a, 2, 2)
	testsupport.WriteImage(t, b, 2, 2)

	list, err := Collect([]string{a, b, a, dir})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !slices.Equal(names(list), []string{"b.png", "a.png"}) {
		t.Fatalf("unexpected list %v", names(list))
	}
}

func TestCollectErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Collect([]string{dir}); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}

	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Collect([]string{broken})
	if err == nil || !strings.Contains(err.Error(), "broken.png") {
		t.Fatalf("expected error naming the file, got %v", err)
	}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Collect([]string{text}); err == nil {
		t.Fatal("expected unsupported type error")
	}
	if _, err := Collect([]string{filepath.Join(dir, "missing.png")}); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestReorder(t *testing.T) {
	list := []Image{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}

	got, err := Reorder(list, []int{3, 1})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if !slices.Equal(names(got), []string{"c", "a", "b", "d"}) {
		t.Fatalf("unexpected order %v", names(got))
	}
	if !slices.Equal(names(list), []string{"a", "b", "c", "d"}) {
		t.Fatal("Reorder mutated its input")
	}
	if _, err := Reorder(list, []int{0}); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := Reorder(list, []int{2, 2}); err == nil {
		t.Fatal("expected repeated position error")
	}
}

func TestShuffleIsDeterministic(t *testing.T) {
	list := make([]Image, 12)
	for i := range list {
		list[i] = Image{Name: string(rune('a' + i))}
	}
	first := Shuffle(list, 42)
	second := Shuffle(list, 42)
	if !slices.Equal(names(first), names(second)) {
		t.Fatal("same seed should give the same order")
	}
	sorted := names(first)
	slices.Sort(sorted)
	if !slices.Equal(sorted, names(list)) {
		t.Fatal("shuffle lost or duplicated images")
	}
}
