package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// Case references are shown to users as DOG followed by a fixed-width decimal
// number. The textual form is for display and search only; nothing outside
// this package may parse it back.

const caseRefPrefix = "DOG"
const caseRefDigits = 6

// FormatCaseRef renders a store-allocated sequence number as a display
// reference, e.g. 1234 -> DOG001234.
func FormatCaseRef(n uint64) string {
	return fmt.Sprintf("%s%0*d", caseRefPrefix, caseRefDigits, n)
}

// parseCaseRef extracts the sequence number from a display reference.
func parseCaseRef(ref string) (uint64, error) {
	if !strings.HasPrefix(ref, caseRefPrefix) {
		return 0, ErrBadCaseRef
	}
	digits := strings.TrimPrefix(ref, caseRefPrefix)
	if len(digits) < caseRefDigits {
		return 0, ErrBadCaseRef
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, ErrBadCaseRef
	}
	return n, nil
}
