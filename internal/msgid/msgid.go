// Package msgid encodes message identifiers that point back at the channel
// or DM that owns the message.
//
// An identifier is a 17 digit decimal number laid out as
//
//	K CCCC SSSSSSSSSSSS
//
// where K selects the container kind, CCCC is the zero padded container id
// and S is a time and random derived suffix that only exists for uniqueness.
package msgid

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Kind is the container kind digit stored in the leading position of an id.
type Kind uint8

const (
	// Channel marks identifiers of channel messages.
	Channel Kind = 4
	// DM marks identifiers of direct message group messages.
	DM Kind = 7
)

// MaxContainerID is the largest container id an identifier can carry.
// Containers with larger ids cannot own messages.
const MaxContainerID = 9999

const (
	suffixSpan    = 1_000_000_000_000 // 12 digits
	containerSpan = 10_000            // 4 digits
	kindShift     = suffixSpan * containerSpan
	minID         = kindShift
	maxID         = 10*kindShift - 1
)

var (
	// ErrOutOfRange is returned when a container id cannot be encoded.
	ErrOutOfRange = errors.New("container id out of range")
	// ErrMalformed is returned when an identifier does not decode.
	ErrMalformed = errors.New("malformed message id")
	// ErrUnknownKind is returned for kinds other than Channel and DM.
	ErrUnknownKind = errors.New("unknown container kind")
)

// String returns the human name of the kind.
func (k Kind) String() string {
	switch k {
	case Channel:
		return "channel"
	case DM:
		return "dm"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known container kind.
func (k Kind) Valid() bool {
	return k == Channel || k == DM
}

// Encode mints a new identifier for a message owned by the given container.
func Encode(kind Kind, containerID int64) (int64, error) {
	return encodeAt(kind, containerID, time.Now())
}

func encodeAt(kind Kind, containerID int64, now time.Time) (int64, error) {
	if !kind.Valid() {
		return 0, ErrUnknownKind
	}
	if containerID < 0 || containerID > MaxContainerID {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, containerID)
	}
	return int64(kind)*kindShift + containerID*suffixSpan + suffix(now), nil
}

// Decode recovers the container that owns the message with the given id.
func Decode(id int64) (Kind, int64, error) {
	if id < minID || id > maxID {
		return 0, 0, ErrMalformed
	}
	kind := Kind(id / kindShift)
	if !kind.Valid() {
		return 0, 0, ErrUnknownKind
	}
	return kind, (id / suffixSpan) % containerSpan, nil
}

// suffix mixes the millisecond clock with a random component. Two ids only
// collide when both the clock residue and the random draw match.
func suffix(now time.Time) int64 {
	clockPart := now.UnixMilli() % 1_000_000
	return clockPart*1_000_000 + randomBelow(1_000_000)
}

func randomBelow(n int64) int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return int64(binary.BigEndian.Uint64(buf[:]) % uint64(n))
	}

	// Fallback to the nanosecond clock if crypto/rand is unavailable.
	return time.Now().UnixNano() % n
}
