package routes

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const indexFile = "index.html"

// spaHandler serves files from assets and falls back to index.html for
// unknown paths so client-side routes resolve. Missing asset files (paths
// with an extension) still 404.
func spaHandler(assets fs.FS) http.Handler {
	files := http.FileServer(http.FS(assets))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = indexFile
		}

		info, err := fs.Stat(assets, name)
		switch {
		case err == nil && !info.IsDir():
			files.ServeHTTP(w, r)
			return
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		case path.Ext(name) != "":
			http.NotFound(w, r)
			return
		}

		index, err := fs.ReadFile(assets, indexFile)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(index)
	})
}
