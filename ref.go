package roommesh

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateReference generates a unique string that can be used as the
// Reference of a scene object.
func GenerateReference() string {
	id := uuid.New()
	buf := make([]byte, 2+hex.EncodedLen(len(id)))
	copy(buf, "RM")
	hex.Encode(buf[2:], id[:])
	return strings.ToUpper(string(buf))
}

// IsEmptyReference returns whether a reference string is considered "empty",
// and therefore not usable to refer to a scene object.
func IsEmptyReference(ref string) bool {
	switch ref {
	case "", "null", "nil":
		return true
	default:
		return false
	}
}
