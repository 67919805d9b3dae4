package dev

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// staticHandler serves files from a directory that may be deleted and
// recreated while the server runs (clean removes dist).
type staticHandler struct {
	root   string
	inject bool
}

// staticRelPath returns a sanitized relative path for a request.
// It rejects traversal and absolute-path tricks so serving cannot escape root.
func staticRelPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		return ".", true
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}
	if strings.Contains(rel, "\\") {
		return "", false
	}
	// A leading "/" left after trimming is an absolute-path attempt ("//etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	for _, seg := range strings.Split(strings.TrimSuffix(rel, "/"), "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}
	return clean, true
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := staticRelPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	fsys := os.DirFS(h.root)
	info, err := fs.Stat(fsys, rel)
	if err == nil && info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		rel = path.Join(rel, "index.html")
		info, err = fs.Stat(fsys, rel)
	}
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	f, err := fsys.Open(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	// Output changes constantly during development.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

	if h.inject && isHTML(rel) {
		body, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = injectScript(body)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, rel, time.Time{}, bytes.NewReader(body))
		return
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "file is not seekable", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, rel, info.ModTime(), rs)
}

func isHTML(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".html" || ext == ".htm"
}

// injectScript inserts the reload client before </body>, falling back to
// </html> and then the end of the document.
func injectScript(body []byte) []byte {
	script := []byte(DevClientScript)
	lower := bytes.ToLower(body)
	for _, tag := range [][]byte{[]byte("</body>"), []byte("</html>")} {
		if idx := bytes.LastIndex(lower, tag); idx != -1 {
			out := make([]byte, 0, len(body)+len(script))
			out = append(out, body[:idx]...)
			out = append(out, script...)
			return append(out, body[idx:]...)
		}
	}
	return append(body, script...)
}
