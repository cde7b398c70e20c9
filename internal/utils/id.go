package utils

import (
	"strconv"
	"strings"
)

// ParseID reads a positive numeric identifier the lenient way path
// parameters have always been read: surrounding spaces are ignored and
// only the leading digits count, so "12abc" and "012" are both 12.
func ParseID(raw string) (uint64, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(raw[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
