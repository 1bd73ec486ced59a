package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/models"
)

// eventBuffer — запас канала событий. Отправка всё равно может блокироваться,
// поэтому транспорт обязан вычитывать канал до закрытия.
const eventBuffer = 16

// MergeRequest — запрос на склейку загрузки в файл FinalName.
type MergeRequest struct {
	UploadID  string
	FinalName string
	Total     int
}

// mergeSession — состояние одной попытки склейки.
type mergeSession struct {
	req    MergeRequest
	parts  []models.ChunkPart
	copied int64
	out    chan<- models.Event
	log    *slog.Logger
}

// Merge проверяет запрос и запускает склейку в отдельной горутине.
// Канал получает ноль или больше Progress и ровно одно терминальное событие,
// после чего закрывается. Отмена ctx склейку не прерывает: имя файла к этому
// моменту может быть уже занято, и недоделанный файл хуже, чем доделанный без
// наблюдателя.
func (s *Uploads) Merge(ctx context.Context, req MergeRequest) (<-chan models.Event, error) {
	if !chunkstore.ValidID(req.UploadID) {
		return nil, models.ErrInvalidID
	}
	if !chunkstore.ValidName(req.FinalName) {
		return nil, models.ErrInvalidName
	}
	if req.Total <= 0 || (s.MaxChunks > 0 && req.Total > s.MaxChunks) {
		return nil, models.ErrInvalidTotal
	}

	events := make(chan models.Event, eventBuffer)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer close(events)
		s.merge(detached, req, events)
	}()

	return events, nil
}

func (s *Uploads) merge(ctx context.Context, req MergeRequest, out chan<- models.Event) {
	sess := &mergeSession{
		req: req,
		out: out,
		log: s.log.With("upload_id", req.UploadID, "name", req.FinalName),
	}

	unlock := s.locks.lock(req.UploadID)
	finish := s.Metrics.MergeStarted()
	terminal := s.run(sess)
	finish(string(terminal.Kind), sess.copied)
	unlock()

	if terminal.Kind != models.EventDone {
		out <- terminal
		return
	}

	sess.log.Info("finish combine upload", "chunks", len(sess.parts), "size", sess.copied)
	a := s.record(ctx, sess, terminal.Data)
	out <- terminal
	s.mirror(ctx, sess, a)
}

// run проходит все шаги склейки и возвращает терминальное событие.
func (s *Uploads) run(sess *mergeSession) models.Event {
	req := sess.req

	refs, err := s.Chunks.Locate(req.UploadID)
	if err != nil {
		sess.log.Error("locate chunks", "error", err)
		return models.Event{Kind: models.EventServerError, Data: "failed to find chunks"}
	}

	exists, err := s.Artifacts.Exists(req.FinalName)
	if err != nil {
		sess.log.Error("stat artifact", "error", err)
		return models.Fail(models.EventServerError, err)
	}

	switch models.DeriveState(models.Snapshot{Chunks: len(refs), Total: req.Total, ArtifactExists: exists}) {
	case models.StateMerged:
		return s.duplicate(sess, refs)
	case models.StateEmpty:
		return models.Event{Kind: models.EventIDNotFound, Data: "file not found from id"}
	}

	parts, err := chunkstore.Order(refs, req.Total)
	if err != nil {
		var missing *models.MissingChunksError
		switch {
		case errors.As(err, &missing):
			sess.log.Info("missing chunks", "found", missing.Found, "total", missing.Total)
			return models.Fail(models.EventMissingChunks, err)
		case errors.Is(err, models.ErrCorruptChunkName):
			sess.log.Warn("corrupt chunk names", "error", err)
			return models.Fail(models.EventCorruptChunkName, err)
		default:
			sess.log.Error("order chunks", "error", err)
			return models.Fail(models.EventServerError, err)
		}
	}
	sess.parts = parts

	f, err := s.Artifacts.Create(req.FinalName)
	if err != nil {
		if errors.Is(err, models.ErrArtifactExists) {
			// проиграли гонку другой склейке — ведём себя как при повторе
			return s.duplicate(sess, refs)
		}
		sess.log.Error("create artifact", "error", err)
		return models.Fail(models.EventServerError, fmt.Errorf("error occured while creating file: %w", err))
	}

	return s.copyParts(sess, f)
}

// copyParts дописывает части по порядку, удаляя каждую после копирования.
func (s *Uploads) copyParts(sess *mergeSession, f chunkstore.ArtifactFile) models.Event {
	for i, p := range sess.parts {
		if err := s.appendPart(sess, f, p); err != nil {
			_ = f.Close()
			sess.log.Error("error occurred while merging file", "seq", p.Seq, "error", err)
			return models.Fail(models.EventServerError, fmt.Errorf("merge file error at chunk #%d: %w", i+1, err))
		}

		// байты уже в итоговом файле; хвосты подберёт GC
		if err := s.Chunks.Remove(p.Path); err != nil {
			sess.log.Warn("failed to delete merged chunk", "seq", p.Seq, "error", err)
		}

		sess.log.Debug("combined chunk", "num", i+1, "seq", p.Seq)
		sess.out <- models.Progress(i + 1)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		sess.log.Error("sync artifact", "error", err)
		return models.Fail(models.EventServerError, err)
	}
	if err := f.Close(); err != nil {
		sess.log.Error("close artifact", "error", err)
		return models.Fail(models.EventServerError, err)
	}

	return models.Done(s.artifactURL(sess.req.FinalName))
}

func (s *Uploads) appendPart(sess *mergeSession, w io.Writer, p models.ChunkPart) error {
	rc, err := s.Chunks.Open(p.Path)
	if err != nil {
		return fmt.Errorf("failed to read chunk: %w", err)
	}
	defer rc.Close()

	n, err := io.Copy(w, rc)
	sess.copied += n
	return err
}

// duplicate удаляет ставшие ненужными части. Ошибки удаления только логируются.
func (s *Uploads) duplicate(sess *mergeSession, refs []chunkstore.ChunkRef) models.Event {
	sess.log.Info("duplicate file skipped combination, deleting temp files", "chunks", len(refs))

	for _, ref := range refs {
		if err := s.Chunks.Remove(ref.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			sess.log.Warn("failed to delete temp file", "path", ref.Path, "error", err)
		}
	}

	return models.Event{Kind: models.EventDuplicate, Data: "cannot upload because duplicate"}
}

// record пишет артефакт в журнал до события Done, чтобы клиент, получивший
// Done, сразу нашёл запись. Ошибка журнала на исход склейки не влияет.
func (s *Uploads) record(ctx context.Context, sess *mergeSession, location string) models.Artifact {
	a := models.Artifact{
		Name:      sess.req.FinalName,
		UploadID:  sess.req.UploadID,
		Size:      sess.copied,
		Chunks:    len(sess.parts),
		URL:       location,
		CreatedAt: time.Now().UTC(),
	}

	if s.Registry != nil {
		if err := s.Registry.Record(ctx, a); err != nil {
			sess.log.Warn("record artifact", "error", err)
		}
	}
	return a
}

// mirror копирует готовый файл во внешнее хранилище уже после Done:
// большой файл не должен задерживать ответ клиенту.
func (s *Uploads) mirror(ctx context.Context, sess *mergeSession, a models.Artifact) {
	if s.Mirror == nil {
		return
	}

	rc, err := s.Artifacts.Open(a.Name)
	if err != nil {
		sess.log.Warn("open artifact for mirror", "error", err)
		return
	}
	defer rc.Close()

	if _, err = s.Mirror.Put(ctx, a.Name, rc); err != nil {
		sess.log.Warn("mirror artifact", "error", err)
	}
}

func (s *Uploads) artifactURL(name string) string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/" + url.PathEscape(name)
}
