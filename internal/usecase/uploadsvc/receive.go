package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/OneOfOne/xxhash"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/models"
)

// ChunkUpload — одна часть, пришедшая от клиента.
type ChunkUpload struct {
	UploadID string
	Seq      uint32
	Body     io.Reader
	// Size — заявленный размер; -1, если неизвестен.
	Size int64
	// Hash — XXH32 (seed 0) содержимого, если клиент его прислал.
	Hash *uint32
}

// Receive сохраняет часть и, если передан хеш, сверяет его с тем, что реально
// легло на диск. При несовпадении часть остаётся на месте и возвращается
// вместе с *models.HashMismatchError.
func (s *Uploads) Receive(_ context.Context, in ChunkUpload) (models.ChunkPart, error) {
	if !chunkstore.ValidID(in.UploadID) {
		s.Metrics.ObserveChunk("invalid_id", 0)
		return models.ChunkPart{}, models.ErrInvalidID
	}
	if s.MaxChunkBytes > 0 && in.Size > s.MaxChunkBytes {
		s.Metrics.ObserveChunk("too_large", 0)
		return models.ChunkPart{}, models.ErrTooLarge
	}

	body := in.Body
	if s.MaxChunkBytes > 0 {
		body = &capReader{r: body, left: s.MaxChunkBytes}
	}

	part, err := s.Chunks.Put(in.UploadID, in.Seq, body, in.Size)
	if err != nil {
		s.Metrics.ObserveChunk(chunkResult(err), 0)
		return models.ChunkPart{}, err
	}

	if in.Hash != nil {
		actual, err := s.checksum(part.Path)
		if err != nil {
			s.Metrics.ObserveChunk("error", part.Size)
			return part, fmt.Errorf("verify chunk: %w", err)
		}
		if actual != *in.Hash {
			s.log.Info("chunk hash bad", "upload_id", in.UploadID, "seq", in.Seq, "expected", *in.Hash, "actual", actual)
			s.Metrics.ObserveChunk("hash_mismatch", part.Size)
			return part, &models.HashMismatchError{Part: part, Expected: *in.Hash, Actual: actual}
		}
	}

	s.log.Info("chunk received", "upload_id", in.UploadID, "seq", in.Seq, "size", part.Size, "hashed", in.Hash != nil)
	s.Metrics.ObserveChunk("created", part.Size)
	return part, nil
}

// Discard удаляет сохранённую часть; используется при политике discard для битых хешей.
func (s *Uploads) Discard(part models.ChunkPart) error {
	return s.Chunks.Remove(part.Path)
}

// checksum перечитывает сохранённую часть и считает XXH32.
func (s *Uploads) checksum(path string) (uint32, error) {
	rc, err := s.Chunks.Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	h := xxhash.New32()
	if _, err = io.Copy(h, rc); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

func chunkResult(err error) string {
	switch {
	case errors.Is(err, models.ErrDuplicatePart):
		return "duplicate"
	case errors.Is(err, models.ErrTooLarge):
		return "too_large"
	case errors.Is(err, models.ErrSizeMismatch):
		return "size_mismatch"
	default:
		return "error"
	}
}

// capReader отдаёт не больше left байт, дальше — ErrTooLarge.
type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, models.ErrTooLarge
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}

	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, models.ErrTooLarge
	}
	return n, err
}
