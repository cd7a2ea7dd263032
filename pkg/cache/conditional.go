package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// Validator computes the entity validator for a response payload: the
// hex SHA-256 of the exact bytes, wrapped in double quotes. Identical
// payloads always carry identical validators, whether served from cache
// or origin.
func Validator(payload []byte) string {
	sum := sha256.Sum256(payload)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// matchesValidator reports whether an If-None-Match header matches the
// validator. The wildcard matches anything, weak validators compare
// equal to their strong form, and multiple candidates may be sent
// comma-separated.
func matchesValidator(ifNoneMatch, validator string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == validator {
			return true
		}
	}
	return false
}

// WriteConditional writes a response with its validator, answering 304
// Not Modified with an empty body when the request's If-None-Match
// matches. The ETag header is always set so the client can revalidate.
func WriteConditional(w http.ResponseWriter, r *http.Request, statusCode int, payload []byte, validator string) {
	w.Header().Set("ETag", validator)
	if matchesValidator(r.Header.Get("If-None-Match"), validator) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(payload)
}
