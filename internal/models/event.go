package models

import (
	"strconv"
)

// EventKind — тип события в канале прогресса склейки.
type EventKind string

// Имена совпадают с идентификаторами событий, которые ждёт веб-клиент.
const (
	EventServerError      EventKind = "servererror"
	EventIDNotFound       EventKind = "idnotfound"
	EventMissingChunks    EventKind = "missingchunks"
	EventCorruptChunkName EventKind = "corruptchunkname"
	EventDuplicate        EventKind = "duplicate"
	EventProgress         EventKind = "progress"
	EventDone             EventKind = "done"
)

// Terminal сообщает, завершает ли событие поток.
func (k EventKind) Terminal() bool {
	return k != EventProgress
}

// Event — одно сообщение канала прогресса с короткой человекочитаемой нагрузкой.
type Event struct {
	Kind EventKind
	Data string
}

// Progress строит событие о склейке очередной части; n считается с единицы.
func Progress(n int) Event {
	return Event{Kind: EventProgress, Data: strconv.Itoa(n)}
}

// Done строит финальное событие с адресом готового файла.
func Done(url string) Event {
	return Event{Kind: EventDone, Data: url}
}

// Fail строит терминальное событие заданного типа из ошибки.
func Fail(kind EventKind, err error) Event {
	return Event{Kind: kind, Data: err.Error()}
}
