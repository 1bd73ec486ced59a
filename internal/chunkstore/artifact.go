package chunkstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sir_venger/chunkd/internal/models"
)

// ArtifactFile — открытый на запись итоговый файл.
type ArtifactFile interface {
	io.Writer
	Sync() error
	Close() error
}

// ArtifactDir — каталог опубликованных файлов.
type ArtifactDir struct {
	dir string
}

// NewArtifactDir создаёт каталог итоговых файлов при необходимости.
func NewArtifactDir(dir string) (*ArtifactDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}

	return &ArtifactDir{dir: dir}, nil
}

// Dir возвращает корень каталога.
func (d *ArtifactDir) Dir() string {
	return d.dir
}

// Path возвращает путь к итоговому файлу name.
func (d *ArtifactDir) Path(name string) string {
	return filepath.Join(d.dir, name)
}

// Exists проверяет, занято ли имя.
func (d *ArtifactDir) Exists(name string) (bool, error) {
	if !ValidName(name) {
		return false, models.ErrInvalidName
	}

	_, err := os.Lstat(d.Path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Create атомарно занимает имя: файл создаётся только если его ещё нет.
func (d *ArtifactDir) Create(name string) (ArtifactFile, error) {
	if !ValidName(name) {
		return nil, models.ErrInvalidName
	}

	f, err := os.OpenFile(d.Path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, models.ErrArtifactExists
		}
		return nil, fmt.Errorf("create artifact %s: %w", name, err)
	}

	return f, nil
}

// Open открывает готовый файл на чтение.
func (d *ArtifactDir) Open(name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, models.ErrInvalidName
	}
	return os.Open(d.Path(name))
}
