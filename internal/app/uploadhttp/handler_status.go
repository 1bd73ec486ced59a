package uploadhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sir_venger/chunkd/internal/models"
	"github.com/sir_venger/chunkd/pkg/httperrors"
)

// status отдаёт выведенное из диска состояние загрузки.
func (a *Server) status(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	total := 0
	if v := q.Get("total"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httperrors.Write(w, fmt.Errorf("%w: %q", models.ErrInvalidTotal, v))
			return
		}
		total = n
	}

	st, err := a.opts.Uploads.Status(r.Context(), pathParam(r, "id"), q.Get("name"), total)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, st)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
