// Package evasion runs the pixel fog challenge: teams perturb a source image
// until an external classifier no longer recognizes it. Nothing is stored;
// each submission is a single gated call to the classifier.
package evasion

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

// Classifier decides whether image no longer shows the object at index.
type Classifier interface {
	Changed(ctx context.Context, image []byte, index int) (bool, error)
}

type Engine struct {
	classifier Classifier
	logger     *slog.Logger
	timeout    time.Duration
}

func NewEngine(classifier Classifier, logger *slog.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{classifier: classifier, logger: logger, timeout: timeout}
}

// Submit decodes a base64 image payload and asks the classifier whether the
// perturbation flipped its label.
func (e *Engine) Submit(ctx context.Context, team string, index int, payload string) (bool, error) {
	if index < 0 {
		return false, fmt.Errorf("%w: imageiter must not be negative", gamenight.ErrValidation)
	}
	img, err := DecodeDataURL(payload)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	changed, err := e.classifier.Changed(ctx, img, index)
	if err != nil {
		e.logger.Error("classifier call failed", "team", team, "index", index, "error", err)
		return false, fmt.Errorf("%w: classifier unavailable", gamenight.ErrExternalService)
	}
	e.logger.Info("evasion attempt", "team", team, "index", index, "changed", changed)
	return changed, nil
}

// DecodeDataURL accepts "data:image/...;base64,<payload>" or bare base64 and
// returns the decoded image bytes.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: image_data is required", gamenight.ErrValidation)
	}
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: image_data must be a base64 data URL", gamenight.ErrValidation)
		}
		s = data
	}

	img, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: image_data is not valid base64", gamenight.ErrValidation)
	}
	if !strings.HasPrefix(http.DetectContentType(img), "image/") {
		return nil, fmt.Errorf("%w: image_data is not an image", gamenight.ErrValidation)
	}
	return img, nil
}

// EncodeDataURL is the inverse of DecodeDataURL.
func EncodeDataURL(img []byte) string {
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
}
