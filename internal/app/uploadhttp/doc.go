// Package uploadhttp реализует HTTP-интерфейс сервиса загрузки файлов частями.
// Основные эндпоинты:
//   - POST /multi/{id}/{num} — принимает часть, сверяет XXH32 и сохраняет без перезаписи.
//   - GET /done/{id}/{name}/{total} — склеивает части и транслирует прогресс через SSE.
//   - GET /uploads/{id}/status — показывает, какие части уже лежат на диске.
//   - GET /artifacts/{name} — отдаёт запись журнала об опубликованном файле.
//   - GET /files/{name} — раздаёт готовые файлы, если включено serve_files.
//   - POST /admin/gc — вручную удаляет брошенные части.
//   - GET /health и GET /metrics — состояние каталогов и метрики Prometheus.
//
// Все маршруты, кроме /files, /health и /metrics, требуют токен в заголовке token
// (или в параметре ?token= — EventSource заголовки ставить не умеет).
package uploadhttp
