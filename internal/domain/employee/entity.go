package employee

import (
	"strings"
	"time"
)

// Employee is a person who can badge in. Cards holds the normalized serials
// of every card currently assigned to them.
type Employee struct {
	ID        string
	FullName  string
	Cards     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeSerial returns the canonical form of a card serial as read from a scanner.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}
