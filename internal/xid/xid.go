package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed identifier, e.g. "sale-5f1c...". The prefix keeps
// ids self-describing in logs and API responses.
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
