package models

// UploadState — состояние загрузки, выводимое из содержимого каталогов.
// Между запросами оно нигде не хранится.
type UploadState string

const (
	StateEmpty      UploadState = "empty"
	StateCollecting UploadState = "collecting"
	StateReady      UploadState = "ready"
	StateMerged     UploadState = "merged"
)

// Snapshot — мгновенный снимок того, что лежит на диске для одной загрузки.
type Snapshot struct {
	Chunks         int
	Total          int
	ArtifactExists bool
}

// DeriveState вычисляет состояние по снимку. Функция чистая.
func DeriveState(s Snapshot) UploadState {
	switch {
	case s.ArtifactExists:
		return StateMerged
	case s.Chunks == 0:
		return StateEmpty
	case s.Total > 0 && s.Chunks == s.Total:
		return StateReady
	default:
		return StateCollecting
	}
}
