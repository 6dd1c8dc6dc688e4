package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// signaturePayload is the canonical string the gateway signs. All fields the
// orchestrator acts on (session ref, transaction id, amount, outcome) are
// covered by the signature.
func signaturePayload(c *Callback) string {
	status := "failed"
	if c.Success {
		status = "captured"
	}
	return fmt.Sprintf("%s|%s|%d|%s", c.SessionRef, c.TransactionID, c.Amount, status)
}

// Sign computes the hex HMAC-SHA256 of the callback over the shared secret.
// Used by the gateway simulator and by tests to produce valid callbacks.
func Sign(c *Callback, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signaturePayload(c)))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares in constant time.
func verifySignature(c *Callback, secret string) bool {
	expected, err := hex.DecodeString(c.Signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signaturePayload(c)))
	return hmac.Equal(mac.Sum(nil), expected)
}
