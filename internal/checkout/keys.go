package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyIssuer produces idempotency keys for the gift-card gateway. A fresh
// key is issued for every attempted debit or credit, including retried
// compensations; the external service treats identical keys as the same
// logical operation and would dedupe a deliberate second action.
type KeyIssuer interface {
	Issue(prefix string) string
}

// TimestampKeyIssuer issues process-unique keys with a millisecond
// timestamp prefix and a random suffix.
type TimestampKeyIssuer struct{}

func (TimestampKeyIssuer) Issue(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "op"
	}
	return fmt.Sprintf("%s-%d-%s", key, time.Now().UnixMilli(), uuid.NewString())
}
