// Package chunkstore хранит части загрузок и итоговые файлы на локальном диске.
//
// Части лежат в общем временном каталоге под именем `<uploadID>.<seq>.part`.
// Точка не может встречаться в идентификаторе загрузки, поэтому имя всегда
// однозначно разбирается обратно в пару (uploadID, seq). Вся логика имён
// собрана в naming.go — остальной код работает только через Store.
//
// Итоговые файлы создаются в отдельном каталоге строго через O_EXCL: это
// единственный механизм, не дающий двум склейкам писать в одно имя.
package chunkstore
