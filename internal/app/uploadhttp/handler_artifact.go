package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/chunkd/pkg/httperrors"
)

// artifact возвращает запись журнала о готовом файле.
func (a *Server) artifact(w http.ResponseWriter, r *http.Request) {
	art, err := a.opts.Uploads.Artifact(r.Context(), pathParam(r, "name"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, art)
}
