package uploadhttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sir_venger/chunkd/internal/models"
	"github.com/sir_venger/chunkd/pkg/uploadproto"
)

// multipartMemory — сколько формы держим в памяти, остальное уходит во временные файлы.
const multipartMemory = 1 << 20

// chunkRequest — разобранный запрос на загрузку части.
type chunkRequest struct {
	uploadID string
	seq      uint32
	body     io.Reader
	size     int64
	hash     *uint32
	cleanup  func()
}

// pathParam возвращает раскодированный параметр маршрута. Chi матчит по
// RawPath, если он есть, и тогда параметры приходят в экранированном виде.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// newChunkRequest поддерживает два формата: сырое тело с необязательным
// X-Chunk-Hash и multipart-форму с полями file и hash, как шлёт веб-клиент.
func newChunkRequest(r *http.Request) (*chunkRequest, error) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "num"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk number must be an unsigned 32-bit integer", models.ErrMalformedChunkReq)
	}

	req := &chunkRequest{
		uploadID: pathParam(r, "id"),
		seq:      uint32(seq),
		cleanup:  func() {},
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return req, req.readForm(r)
	}

	if v := r.Header.Get(uploadproto.HeaderChunkHash); v != "" {
		h, err := parseHash(v)
		if err != nil {
			return nil, err
		}
		req.hash = &h
	}
	req.body = r.Body
	req.size = r.ContentLength

	return req, nil
}

func (c *chunkRequest) readForm(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return formError(err)
	}
	c.cleanup = func() { _ = r.MultipartForm.RemoveAll() }

	files := r.MultipartForm.File[uploadproto.FormFieldFile]
	if len(files) == 0 {
		return fmt.Errorf("%w: missing %q field", models.ErrMalformedChunkReq, uploadproto.FormFieldFile)
	}

	h, err := parseHash(r.MultipartForm.Value[uploadproto.FormFieldHash]...)
	if err != nil {
		return err
	}

	f, err := files[0].Open()
	if err != nil {
		return fmt.Errorf("open form file: %w", err)
	}
	c.cleanup = func() {
		_ = f.Close()
		_ = r.MultipartForm.RemoveAll()
	}

	c.body = f
	c.size = files[0].Size
	c.hash = &h
	return nil
}

func parseHash(values ...string) (uint32, error) {
	if len(values) == 0 || values[0] == "" {
		return 0, fmt.Errorf("%w: missing %q field", models.ErrMalformedChunkReq, uploadproto.FormFieldHash)
	}

	h, err := strconv.ParseUint(strings.TrimSpace(values[0]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: hash must be a decimal XXH32 value", models.ErrMalformedChunkReq)
	}
	return uint32(h), nil
}

// formError отделяет превышение лимита тела от испорченной формы.
func formError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return models.ErrTooLarge
	}
	return fmt.Errorf("%w: error occured while recieving form: %v", models.ErrMalformedChunkReq, err)
}
