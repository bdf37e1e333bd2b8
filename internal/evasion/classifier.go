package evasion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// HTTPClassifier posts images to the classifier service as
// {"image": base64, "index": n} and reads {"changed": bool} back.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

func NewHTTPClassifier(url string, client *http.Client) *HTTPClassifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClassifier{url: url, client: client}
}

func (c *HTTPClassifier) Changed(ctx context.Context, image []byte, index int) (bool, error) {
	body, err := json.Marshal(map[string]any{
		"image": base64.StdEncoding.EncodeToString(image),
		"index": index,
	})
	if err != nil {
		return false, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("classify request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return false, fmt.Errorf("read classify response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return false, fmt.Errorf("classify request status %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}

	changed := gjson.GetBytes(data, "changed")
	if changed.Type != gjson.True && changed.Type != gjson.False {
		return false, errors.New("classify response has no boolean changed field")
	}
	return changed.Bool(), nil
}
