package uploadhttp

import (
	"errors"
	"io"
	"net/http"

	"github.com/sir_venger/chunkd/internal/models"
	"github.com/sir_venger/chunkd/internal/usecase/uploadsvc"
	"github.com/sir_venger/chunkd/pkg/httperrors"
	"github.com/sir_venger/chunkd/pkg/uploadproto"
)

// receiveChunk принимает одну часть загрузки.
func (a *Server) receiveChunk(w http.ResponseWriter, r *http.Request) {
	req, err := newChunkRequest(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	defer req.cleanup()

	_, err = a.opts.Uploads.Receive(r.Context(), uploadsvc.ChunkUpload{
		UploadID: req.uploadID,
		Seq:      req.seq,
		Body:     req.body,
		Size:     req.size,
		Hash:     req.hash,
	})

	var mismatch *models.HashMismatchError
	if errors.As(err, &mismatch) && !a.opts.KeepMismatched {
		// иначе повтор упрётся в запрет перезаписи
		if derr := a.opts.Uploads.Discard(mismatch.Part); derr != nil {
			a.log.Warn("discard mismatched chunk", "upload_id", req.uploadID, "seq", req.seq, "error", derr)
		}
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		err = models.ErrTooLarge
	}

	if err != nil {
		if httperrors.Status(err) == http.StatusInternalServerError {
			a.log.Error("failed to save chunk", "upload_id", req.uploadID, "seq", req.seq, "error", err)
		}
		httperrors.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_, _ = io.WriteString(w, uploadproto.ChunkAccepted)
}
