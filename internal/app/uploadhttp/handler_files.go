package uploadhttp

import (
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/sir_venger/chunkd/internal/chunkstore"
)

// serveFile отдаёт готовый файл из каталога загрузок.
func (a *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if !chunkstore.ValidName(name) {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(a.opts.Artifacts.Path(name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Type", "application/octet-stream")

	if _, err = io.Copy(w, f); err != nil {
		a.log.Warn("serve file", "name", name, "error", err)
	}
}
