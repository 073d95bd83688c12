package core

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// IdentityKey returns the string a record's doc_id is derived from.
// Priority: URL, then "title|ingredients", then the scraped id. The second
// return value is false when no stable signal exists and a random key was used.
func IdentityKey(title, ingredients, url, originalID string) (string, bool) {
	if key, ok := stableKey(title, ingredients, url, originalID); ok {
		return key, true
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "fallback|" + hex.EncodeToString(buf), false
}

func stableKey(title, ingredients, url, originalID string) (string, bool) {
	if key := strings.TrimSpace(url); key != "" {
		return key, true
	}
	if key := strings.TrimSpace(title + "|" + ingredients); key != "|" {
		return key, true
	}
	if key := strings.TrimSpace(originalID); key != "" {
		return key, true
	}
	return "", false
}

// HasStableIdentity reports whether record carries a signal its doc_id can be
// derived from deterministically. Records without one get a fresh doc_id on
// every call to AssignID.
func HasStableIdentity(record NormalizedRecord) bool {
	_, ok := stableKey(record.Title, record.Ingredients, record.URL, record.ID)
	return ok
}

// DocIDFromKey hashes an identity key into a UUIDv5 string in the URL namespace.
func DocIDFromKey(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// AssignID derives the doc_id of a normalized record.
// Identical content always yields the identical identifier.
func AssignID(record NormalizedRecord) string {
	key, _ := IdentityKey(record.Title, record.Ingredients, record.URL, record.ID)
	return DocIDFromKey(key)
}

// PartDocIDs derives the doc_ids of a record split into n parent pieces.
// Piece 0 carries the record's own doc_id; later pieces hash "key#n".
func PartDocIDs(record NormalizedRecord, n int) []string {
	key, _ := IdentityKey(record.Title, record.Ingredients, record.URL, record.ID)
	ids := make([]string, n)
	for i := range ids {
		if i == 0 {
			ids[i] = DocIDFromKey(key)
			continue
		}
		ids[i] = DocIDFromKey(key + "#" + strconv.Itoa(i))
	}
	return ids
}
