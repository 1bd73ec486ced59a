package chunkstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sir_venger/chunkd/internal/models"
)

// ChunkRef — ссылка на файл части, найденный при сканировании каталога.
type ChunkRef struct {
	UploadID string
	Name     string
	Path     string
	Size     int64
}

// Store — каталог частей загрузок.
type Store struct {
	dir string
}

// New создаёт хранилище частей поверх каталога dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir %s: %w", dir, err)
	}

	return &Store{dir: dir}, nil
}

// Dir возвращает корень хранилища.
func (s *Store) Dir() string {
	return s.dir
}

// Put записывает часть под каноническим именем, никогда не перезаписывая
// существующую. Данные сначала пишутся во временный файл и сбрасываются на
// диск, затем публикуются жёсткой ссылкой: link падает с EEXIST, если часть
// уже есть. size < 0 означает, что размер заранее неизвестен.
func (s *Store) Put(uploadID string, seq uint32, r io.Reader, size int64) (models.ChunkPart, error) {
	if !ValidID(uploadID) {
		return models.ChunkPart{}, models.ErrInvalidID
	}

	tmp := filepath.Join(s.dir, tempPrefix+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return models.ChunkPart{}, fmt.Errorf("create temp chunk: %w", err)
	}
	defer os.Remove(tmp)

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return models.ChunkPart{}, fmt.Errorf("write chunk: %w", err)
	}
	if size >= 0 && n != size {
		f.Close()
		return models.ChunkPart{}, fmt.Errorf("%w: want %d, got %d", models.ErrSizeMismatch, size, n)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return models.ChunkPart{}, fmt.Errorf("sync chunk: %w", err)
	}
	if err = f.Close(); err != nil {
		return models.ChunkPart{}, fmt.Errorf("close chunk: %w", err)
	}

	dst := filepath.Join(s.dir, PartName(uploadID, seq))
	if err = os.Link(tmp, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return models.ChunkPart{}, models.ErrDuplicatePart
		}
		return models.ChunkPart{}, fmt.Errorf("publish chunk: %w", err)
	}
	syncDir(s.dir)

	return models.ChunkPart{
		UploadID: uploadID,
		Seq:      seq,
		Size:     n,
		Path:     dst,
	}, nil
}

// Locate возвращает все части uploadID, лежащие в каталоге в момент вызова.
// Блокировок нет: параллельные Put могут добавить части сразу после скана.
func (s *Store) Locate(uploadID string) ([]ChunkRef, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan chunk dir: %w", err)
	}

	var refs []ChunkRef
	for _, e := range entries {
		if !e.Type().IsRegular() || !belongsTo(uploadID, e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// часть успели удалить между ReadDir и Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat chunk %s: %w", e.Name(), err)
		}

		refs = append(refs, ChunkRef{
			UploadID: uploadID,
			Name:     e.Name(),
			Path:     filepath.Join(s.dir, e.Name()),
			Size:     info.Size(),
		})
	}

	return refs, nil
}

// Open открывает файл части на чтение.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	if err := s.owns(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove удаляет файл части.
func (s *Store) Remove(path string) error {
	if err := s.owns(path); err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *Store) owns(path string) error {
	if filepath.Dir(path) != filepath.Clean(s.dir) || !strings.HasSuffix(path, partSuffix) {
		return fmt.Errorf("%s is not a chunk of %s", path, s.dir)
	}
	return nil
}

// syncDir сбрасывает запись каталога; ошибки игнорируются — не все ФС это умеют.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
