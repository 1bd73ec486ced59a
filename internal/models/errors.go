package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid upload id")
	ErrInvalidName       = errors.New("invalid file name")
	ErrInvalidTotal      = errors.New("invalid total chunk count")
	ErrDuplicatePart     = errors.New("chunk already exists")
	ErrHashMismatch      = errors.New("hash mismatch, retry")
	ErrSizeMismatch      = errors.New("size mismatch")
	ErrTooLarge          = errors.New("chunk too large")
	ErrCorruptChunkName  = errors.New("one or more chunks not saved correctly")
	ErrMissingChunks     = errors.New("missing chunks")
	ErrArtifactExists    = errors.New("artifact already exists")
	ErrUnauthorized      = errors.New("failed, not authorized")
	ErrTokenMissing      = errors.New("token was not found")
	ErrContentLength     = errors.New("file size not found")
	ErrBadContentLength  = errors.New("file size is not a valid number")
	ErrMalformedChunkReq = errors.New("malformed chunk request")
)

// MissingChunksError сообщает, сколько частей найдено и сколько заявил клиент.
type MissingChunksError struct {
	Found int
	Total int
}

func (e *MissingChunksError) Error() string {
	return fmt.Sprintf("%d chunks were received, but %d chunks was specified. are some chunks missing?", e.Found, e.Total)
}

func (e *MissingChunksError) Unwrap() error { return ErrMissingChunks }

// DuplicateSequenceError — два имени файла разобрались в один и тот же номер части.
type DuplicateSequenceError struct {
	Seq   uint32
	Names []string
}

func (e *DuplicateSequenceError) Error() string {
	return fmt.Sprintf("duplicate chunk sequence %d: %v", e.Seq, e.Names)
}

func (e *DuplicateSequenceError) Unwrap() error { return ErrCorruptChunkName }

// HashMismatchError возвращается приёмником вместе с сохранённой частью,
// чтобы вызывающая сторона сама решила, удалять её или нет.
type HashMismatchError struct {
	Part     ChunkPart
	Expected uint32
	Actual   uint32
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch for %s chunk %d: expected %d, got %d", e.Part.UploadID, e.Part.Seq, e.Expected, e.Actual)
}

func (e *HashMismatchError) Unwrap() error { return ErrHashMismatch }
