package evasion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

var errNoImages = errors.New("no challenge images")

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// Feed serves the source images of the challenge, ordered by file name.
type Feed struct {
	paths []string
}

// LoadFeed lists the images in dir. A missing directory yields an empty feed.
func LoadFeed(dir string) (*Feed, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return &Feed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading challenge images: %w", err)
	}

	var paths []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if slices.Contains(imageExts, strings.ToLower(filepath.Ext(ent.Name()))) {
			paths = append(paths, filepath.Join(dir, ent.Name()))
		}
	}
	slices.Sort(paths)
	return &Feed{paths: paths}, nil
}

// Len returns the number of challenge images.
func (f *Feed) Len() int {
	return len(f.paths)
}

// Image returns challenge image index as a data URL.
func (f *Feed) Image(index int) (string, error) {
	if len(f.paths) == 0 {
		return "", fmt.Errorf("%w: %v", gamenight.ErrNotFound, errNoImages)
	}
	if index < 0 || index >= len(f.paths) {
		return "", fmt.Errorf("%w: no challenge image %d", gamenight.ErrNotFound, index)
	}
	img, err := os.ReadFile(f.paths[index])
	if err != nil {
		return "", fmt.Errorf("reading challenge image %d: %w", index, err)
	}
	return EncodeDataURL(img), nil
}
