package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleUploads serves stored story hunt images from dir. Directories and
// missing files are 404; there is no listing.
func handleUploads(dir, prefix string) http.HandlerFunc {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))

	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, prefix)
		path := filepath.Join(dir, filepath.Clean("/"+rel))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}
