package main

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// mirrorHandler answers the catalog's series-issues form post with the saved
// page for that series.
func mirrorHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
			return
		}

		id := strings.TrimSpace(r.PostForm.Get("seriesid"))
		if id == "" || strings.ContainsAny(id, `/\.`) {
			http.Error(w, "invalid seriesid", http.StatusBadRequest)
			return
		}

		b, err := os.ReadFile(filepath.Join(dir, id+".html"))
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "series not mirrored", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "cannot read page: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
