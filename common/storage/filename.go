package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// GenerateSafeFilename returns <unix-millis>_<8 hex chars>_<sanitized name>.
// Characters outside [A-Za-z0-9_.-] become underscores.
func GenerateSafeFilename(originalName string) string {
	safe := unsafeFilenameChars.ReplaceAllString(originalName, "_")
	return fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), randomSuffix(), safe)
}

func randomSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b)
}
