// Package uploadproto описывает HTTP-протокол сервиса загрузки частями:
// маршруты, заголовки и поля формы, общие для сервера и клиента.
package uploadproto

// Маршруты. Первый %s — базовый адрес сервера.
const (
	ChunkPathFormat  = "%s/multi/%s/%d"
	MergePathFormat  = "%s/done/%s/%s/%d"
	StatusPathFormat = "%s/uploads/%s/status"
)

// Заголовки и параметры запроса.
const (
	HeaderToken     = "token"
	QueryToken      = "token"
	HeaderChunkHash = "X-Chunk-Hash"
)

// Поля multipart-формы, которые отправляет веб-клиент.
const (
	FormFieldFile = "file"
	FormFieldHash = "hash"
)

// ChunkAccepted — тело ответа на успешно сохранённую часть.
const ChunkAccepted = "done"
