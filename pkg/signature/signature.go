// Package signature verifies HMAC-signed webhook notifications.
//
// The scheme matches what conferencing platforms such as Zoom use: the
// signature header carries "{version}={hex(hmac-sha256("{version}:{ts}:{body}"))}"
// and a companion header carries the unix timestamp.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const version = "v0"

// Sign computes the versioned signature for a raw body and timestamp.
func Sign(rawBody []byte, timestamp string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s:", version, timestamp)
	mac.Write(rawBody)
	return version + "=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a webhook signature. It fails closed: a missing secret,
// malformed header, or timestamp outside maxSkew all reject the request.
func Verify(rawBody []byte, signatureHeader, timestampHeader, secret string, maxSkew time.Duration) bool {
	if secret == "" || signatureHeader == "" || timestampHeader == "" {
		return false
	}

	prefix := version + "="
	if !strings.HasPrefix(signatureHeader, prefix) {
		return false
	}

	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return false
	}
	if maxSkew > 0 {
		drift := time.Since(time.Unix(ts, 0))
		if drift < 0 {
			drift = -drift
		}
		if drift > maxSkew {
			return false
		}
	}

	expected := Sign(rawBody, timestampHeader, secret)
	return hmac.Equal([]byte(signatureHeader), []byte(expected))
}
