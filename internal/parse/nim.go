package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	nimRe     = regexp.MustCompile(`^[0-9]+$`)
	roomRefRe = regexp.MustCompile(`^\s*(\d+)\s*[-/:]\s*(\d+)\s*$`)
)

// MaxNIMLength matches the width of the residents.nim column.
const MaxNIMLength = 50

// ValidNIM reports whether raw is a well-formed student identifier: non-empty,
// digits only, no surrounding whitespace.
func ValidNIM(raw string) bool {
	return len(raw) <= MaxNIMLength && nimRe.MatchString(raw)
}

// RoomRef identifies a room by dormitory and room number.
type RoomRef struct {
	DormitoryID int64
	RoomNumber  int
}

func (r RoomRef) String() string {
	return fmt.Sprintf("%d-%d", r.DormitoryID, r.RoomNumber)
}

// ParseRoomRef parses compact references such as "1-101", "1/101" or "1:101"
// (dormitory first, room number second).
func ParseRoomRef(raw string) (RoomRef, error) {
	m := roomRefRe.FindStringSubmatch(raw)
	if m == nil {
		return RoomRef{}, fmt.Errorf("unable to parse room reference: %q", raw)
	}

	dorm, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || dorm <= 0 {
		return RoomRef{}, fmt.Errorf("invalid dormitory in room reference %q", raw)
	}
	room, err := strconv.Atoi(m[2])
	if err != nil || room <= 0 {
		return RoomRef{}, fmt.Errorf("invalid room number in room reference %q", raw)
	}
	return RoomRef{DormitoryID: dorm, RoomNumber: room}, nil
}

// OptionalText normalises an optional free-text field: nil stays nil, anything
// else is trimmed.
func OptionalText(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	return &s
}
