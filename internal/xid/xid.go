package xid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns "<prefix>-<unix millis><random suffix>", unique and roughly time ordered.
func New(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%d%s", prefix, time.Now().UnixMilli(), suffix)
}

// Token returns an opaque session token.
func Token() string {
	return "token-" + uuid.NewString()
}
