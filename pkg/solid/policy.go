package solid

import (
	"fmt"
	"strings"
)

// Policy decides what happens to shells that do not close.
type Policy int

const (
	// RetainEnclosed keeps an open shell when it still encloses positive
	// volume by the even-odd ray-crossing rule.
	RetainEnclosed Policy = iota
	// DropOpen keeps closed shells only.
	DropOpen
	// RetainAll keeps every shell.
	RetainAll
)

func (p Policy) String() string {
	switch p {
	case RetainEnclosed:
		return "retain-enclosed"
	case DropOpen:
		return "drop-open"
	case RetainAll:
		return "retain-all"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy reads a policy name as written in configuration.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain-enclosed", "retain_enclosed", "enclosed":
		return RetainEnclosed, nil
	case "drop-open", "drop_open", "drop":
		return DropOpen, nil
	case "retain-all", "retain_all", "all":
		return RetainAll, nil
	}
	return 0, fmt.Errorf("unknown open shell policy %q", s)
}
