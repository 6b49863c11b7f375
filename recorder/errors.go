package recorder

import (
	"fmt"
	"strings"
)

type (
	ValidationError struct {
		Missing []string
	}
)

func (v ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %v", strings.Join(v.Missing, ", "))
}
