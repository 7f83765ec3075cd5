package store

import (
	"fmt"
	"strconv"
	"strings"

	"quizmas-service/internal/constants"
)

func GamePath(pin string) string {
	return constants.GamesNamespace + "/" + pin
}

func GameFieldPath(pin, field string) string {
	return GamePath(pin) + "/" + field
}

func PlayerPath(pin, playerID string) string {
	return GamePath(pin) + "/players/" + playerID
}

func PlayerFieldPath(pin, playerID, field string) string {
	return PlayerPath(pin, playerID) + "/" + field
}

func AnswerPath(pin string, questionIndex int, playerID string) string {
	return fmt.Sprintf("%s/answers/%d/%s", GamePath(pin), questionIndex, playerID)
}

// JoinSlotPath is the n-th entry of a game's join order.
func JoinSlotPath(pin string, n int) string {
	return fmt.Sprintf("%s/joinOrder/%d", GamePath(pin), n)
}

// SplitPath splits a path into its non-empty segments.
func SplitPath(path string) ([]string, error) {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return segs, nil
}

// IsWithin reports whether path equals base or lies beneath it.
func IsWithin(path, base []string) bool {
	if len(path) < len(base) {
		return false
	}
	for i := range base {
		if path[i] != base[i] {
			return false
		}
	}
	return true
}

func overlaps(a, b []string) bool {
	return IsWithin(a, b) || IsWithin(b, a)
}

func arrayIndex(seg string, n int) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
