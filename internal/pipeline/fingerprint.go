package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"hishab/internal/models"
)

// Fingerprint derives the cache key for a parse request. The raw text is
// lowercased and whitespace-collapsed first so trivial rephrasings of the
// same phrase share a key.
func Fingerprint(req models.ParseRequest) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(req.RawText)), " ")
	sum := sha256.Sum256([]byte(req.UserID + "|" + normalized + "|" + string(req.Domain)))
	return hex.EncodeToString(sum[:])
}
