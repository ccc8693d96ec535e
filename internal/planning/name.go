package planning

import (
	"regexp"
	"strconv"
)

var trailingDigits = regexp.MustCompile(`(\d+)\s*$`)

// NextSprintName derives a rollover sprint's name. A trailing number is
// incremented in place; a name that does not end in digits gets " 2"
// appended.
//
//	"Sprint 1"  -> "Sprint 2"
//	"Sprint 9"  -> "Sprint 10"
//	"Q3 Sprint" -> "Q3 Sprint 2"
func NextSprintName(name string) string {
	loc := trailingDigits.FindStringSubmatchIndex(name)
	if loc == nil {
		return name + " 2"
	}

	start, end := loc[2], loc[3]
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		// Trailing digits too large for int; append instead of incrementing.
		return name + " 2"
	}

	return name[:start] + strconv.Itoa(n+1) + name[end:]
}
