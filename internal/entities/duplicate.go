package entities

import (
	"fmt"
	"strings"
)

// DuplicateHandling decides what an import does when a guide with the same
// title (case-insensitive) already exists.
type DuplicateHandling string

const (
	DuplicateSkip      DuplicateHandling = "skip"
	DuplicateOverwrite DuplicateHandling = "overwrite"
	DuplicateRename    DuplicateHandling = "rename"
)

// ParseDuplicateHandling accepts the policy name in any case. An empty
// string yields the default, DuplicateSkip.
func ParseDuplicateHandling(s string) (DuplicateHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DuplicateSkip):
		return DuplicateSkip, nil
	case string(DuplicateOverwrite):
		return DuplicateOverwrite, nil
	case string(DuplicateRename):
		return DuplicateRename, nil
	default:
		return "", fmt.Errorf("unknown duplicate handling %q: must be one of skip, overwrite, rename", s)
	}
}

func (d DuplicateHandling) String() string {
	return string(d)
}
