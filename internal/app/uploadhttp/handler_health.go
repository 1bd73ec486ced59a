package uploadhttp

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK            bool  `json:"ok"`
	ChunkFiles    int   `json:"chunk_files"`
	ChunkBytes    int64 `json:"chunk_bytes"`
	ArtifactFiles int   `json:"artifact_files"`
	ArtifactBytes int64 `json:"artifact_bytes"`
}

// health возвращает объём данных в каталогах частей и готовых файлов.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	var st healthStats
	var err error

	if a.opts.Chunks != nil {
		if st.ChunkFiles, st.ChunkBytes, err = dirUsage(a.opts.Chunks.Dir()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if a.opts.Artifacts != nil {
		if st.ArtifactFiles, st.ArtifactBytes, err = dirUsage(a.opts.Artifacts.Dir()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	st.OK = true
	writeJSON(w, st)
}

// dirUsage суммирует размеры обычных файлов под root.
func dirUsage(root string) (int, int64, error) {
	var files int
	var total int64

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// файл могли склеить и удалить прямо во время обхода
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		files++
		total += info.Size()
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, 0, err
	}

	return files, total, nil
}
