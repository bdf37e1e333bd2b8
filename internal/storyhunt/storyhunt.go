// Package storyhunt stores the photos and the story each team produces in
// the story hunt. Photo upload is a one-shot action that completes the game
// for the team; the story text can be rewritten at any time.
package storyhunt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/teams"
)

const MaxFiles = 10

// File is one uploaded file as received by the gateway.
type File struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Item describes a stored image.
type Item struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type teamLock struct {
	mu sync.Mutex
}

type Engine struct {
	imageDir string
	storyDir string
	urlBase  string
	reg      *teams.Registry
	logger   *slog.Logger
	locks    gamenight.Keyed[teamLock]
}

// NewEngine stores images under imageDir/<team>/ and stories under
// storyDir/<team>.txt. Image URLs are urlBase/<team>/<filename>.
func NewEngine(imageDir, storyDir, urlBase string, reg *teams.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		imageDir: imageDir,
		storyDir: storyDir,
		urlBase:  strings.TrimRight(urlBase, "/"),
		reg:      reg,
		logger:   logger,
	}
}

// Upload stores up to MaxFiles images for team and completes the game. The
// batch is validated as a whole before anything is written. Files are staged
// under temporary names and the upload sequence only moves once every file
// is in place, so a failed batch leaves neither files nor a numbering gap.
func (e *Engine) Upload(ctx context.Context, team string, files []File) ([]Item, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", gamenight.ErrValidation)
	}
	if len(files) > MaxFiles {
		return nil, fmt.Errorf("%w: at most %d files per upload, got %d", gamenight.ErrValidation, MaxFiles, len(files))
	}
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			return nil, fmt.Errorf("%w: %q is not an image (%s)", gamenight.ErrValidation, f.Name, f.ContentType)
		}
	}

	l := e.locks.Get(team)
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := e.reg.CheckOpen(ctx, gamenight.GameStoryHunt, team); err != nil {
		return nil, err
	}

	dir := filepath.Join(e.imageDir, team)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	// Numbering continues after whatever is already on disk, which
	// outlives an in-memory registry.
	stored, err := scan(dir, team)
	if err != nil {
		return nil, err
	}
	seq, err := e.reg.UploadSeq(ctx, team)
	if err != nil {
		return nil, err
	}
	first := seq + 1
	if len(stored) > 0 {
		first = max(first, stored[len(stored)-1].n+1)
	}

	staged := make([]string, 0, len(files))
	for _, f := range files {
		tmp, err := stageFile(dir, f)
		if err != nil {
			removeAll(staged)
			return nil, fmt.Errorf("storing %q: %w", f.Name, err)
		}
		staged = append(staged, tmp)
	}

	items := make([]Item, 0, len(files))
	placed := make([]string, 0, len(files))
	for i, tmp := range staged {
		name := imageName(team, first+i, extension(files[i]))
		path := filepath.Join(dir, name)
		// Link never replaces an existing file.
		if err := os.Link(tmp, path); err != nil {
			removeAll(placed)
			removeAll(staged)
			return nil, fmt.Errorf("storing %q: %w", files[i].Name, err)
		}
		placed = append(placed, path)
		items = append(items, e.item(team, name))
	}
	removeAll(staged)

	if err := e.reg.CommitUploads(ctx, team, first+len(files)-1); err != nil {
		removeAll(placed)
		return nil, err
	}

	if _, err := e.reg.MarkCompleted(ctx, gamenight.GameStoryHunt, team); err != nil {
		return nil, err
	}
	e.logger.Info("story hunt images uploaded", "team", team, "count", len(items), "first_index", first)
	return items, nil
}

// List returns the stored images of team in upload order.
func (e *Engine) List(team string) ([]Item, error) {
	found, err := scan(filepath.Join(e.imageDir, team), team)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no images for team %q", gamenight.ErrNotFound, team)
	}

	items := make([]Item, len(found))
	for i, f := range found {
		items[i] = e.item(team, f.name)
	}
	return items, nil
}

// SubmitStory writes text as the team's story, replacing any earlier one.
// It is not gated by the completion flag.
func (e *Engine) SubmitStory(team, text string) error {
	if strings.TrimSpace(team) == "" {
		return fmt.Errorf("%w: team_name is required", gamenight.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: story is required", gamenight.ErrValidation)
	}

	l := e.locks.Get(team)
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(e.storyDir, 0o755); err != nil {
		return fmt.Errorf("creating story dir: %w", err)
	}
	if err := os.WriteFile(e.StoryPath(team), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing story: %w", err)
	}
	e.logger.Info("story submitted", "team", team, "bytes", len(text))
	return nil
}

// StoryPath returns where the story of team is stored.
func (e *Engine) StoryPath(team string) string {
	return filepath.Join(e.storyDir, team+".txt")
}

func (e *Engine) item(team, name string) Item {
	return Item{
		Filename: name,
		URL:      e.urlBase + "/" + url.PathEscape(team) + "/" + url.PathEscape(name),
	}
}

func imageName(team string, n int, ext string) string {
	return team + "_image" + strconv.Itoa(n) + ext
}

// imageIndex parses the N out of <team>_image<N>.<ext>.
func imageIndex(team, name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, team+"_image")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(rest, filepath.Ext(rest)))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func extension(f File) string {
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(f.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}

type indexed struct {
	n    int
	name string
}

// scan returns the stored images of team in dir ordered by index. A missing
// dir holds no images.
func scan(dir, team string) ([]indexed, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	var found []indexed
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if n, ok := imageIndex(team, ent.Name()); ok {
			found = append(found, indexed{n: n, name: ent.Name()})
		}
	}
	slices.SortFunc(found, func(a, b indexed) int { return a.n - b.n })
	return found, nil
}

// stageFile copies f into a hidden temporary file in dir.
func stageFile(dir string, f File) (string, error) {
	src, err := f.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	if err := os.Chmod(dst.Name(), 0o644); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
