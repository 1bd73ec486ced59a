package models

import "time"

// ChunkPart описывает одну часть загрузки, лежащую во временном каталоге.
type ChunkPart struct {
	UploadID string `json:"upload_id"`
	Seq      uint32 `json:"seq"`
	Size     int64  `json:"size"`
	Path     string `json:"-"`
}

// Artifact — итоговый склеенный файл, опубликованный по публичному адресу.
type Artifact struct {
	Name      string    `json:"name"`
	UploadID  string    `json:"upload_id"`
	Size      int64     `json:"size"`
	Chunks    int       `json:"chunks"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
