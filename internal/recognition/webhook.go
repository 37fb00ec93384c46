package recognition

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Signature"

// Callback statuses reported by the provider. Only StatusFinished triggers
// result processing; StatusFailed marks the job failed; anything else is
// acknowledged without side effects.
const (
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// ParseCallback decodes a webhook body. A callback without a job id is
// rejected so the pipeline never acts on an unattributable notification.
func ParseCallback(body []byte) (*Callback, error) {
	var callback Callback
	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, fmt.Errorf("decode callback: %w", err)
	}
	if strings.TrimSpace(callback.JobID) == "" {
		return nil, errors.New("callback missing job_id")
	}
	return &callback, nil
}

// Sign computes the hex-encoded HMAC-SHA256 signature of a webhook body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook body against the signature header value.
// An empty secret disables verification.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
