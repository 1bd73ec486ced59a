package chunkstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sir_venger/chunkd/internal/models"
)

const (
	partDelimiter = "."
	partSuffix    = ".part"
	tempPrefix    = ".recv-"
	maxNameLen    = 255
)

var uploadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidID проверяет, что идентификатор не сделает имя части неоднозначным.
func ValidID(uploadID string) bool {
	return uploadIDPattern.MatchString(uploadID)
}

// ValidName проверяет имя итогового файла: только один сегмент пути.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > maxNameLen {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// PartName возвращает каноническое имя файла части.
func PartName(uploadID string, seq uint32) string {
	return uploadID + partDelimiter + strconv.FormatUint(uint64(seq), 10) + partSuffix
}

// belongsTo сообщает, что имя построено по шаблону для данного uploadID.
// Номер при этом может и не разобраться — это уже повреждение.
func belongsTo(uploadID, name string) bool {
	prefix := uploadID + partDelimiter
	return len(name) >= len(prefix)+len(partSuffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, partSuffix)
}

// ParseSeq достаёт номер части из имени файла. Имя обязано совпасть с
// PartName побайтно: "abc.002.part" и "abc.+2.part" считаются повреждением.
func ParseSeq(uploadID, name string) (uint32, error) {
	if !belongsTo(uploadID, name) {
		return 0, fmt.Errorf("%w: %q does not belong to %q", models.ErrCorruptChunkName, name, uploadID)
	}

	raw := name[len(uploadID)+len(partDelimiter) : len(name)-len(partSuffix)]
	seq, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrCorruptChunkName, name)
	}
	if PartName(uploadID, uint32(seq)) != name {
		return 0, fmt.Errorf("%w: %q is not canonical", models.ErrCorruptChunkName, name)
	}

	return uint32(seq), nil
}
