package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// publishTriggers are the webhook trigger types that invalidate the sitemap.
var publishTriggers = map[string]struct{}{
	"site_publish":    {},
	"content_publish": {},
	"content_delete":  {},
}

// WebhookEvent is a decoded publish notification. Payloads are matched on the
// trigger tag at the boundary; unrecognized shapes never reach the core.
type WebhookEvent struct {
	Trigger string       `json:"triggerType"`
	Payload *WebhookSite `json:"payload,omitempty"`
}

// WebhookSite identifies the site a publish event concerns.
type WebhookSite struct {
	Site        string `json:"site,omitempty"`
	PublishedBy string `json:"publishedBy,omitempty"`
}

// DecodeWebhookEvent decodes and shape-checks a webhook body.
func DecodeWebhookEvent(body []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("webhook payload is not valid JSON: %w", err)
	}
	if evt.Trigger == "" {
		return nil, errors.New("webhook payload has no triggerType field")
	}
	return &evt, nil
}

// ShouldInvalidate reports whether the event is a recognized publish-type
// trigger. Unrecognized triggers are acknowledged but change nothing.
func (e *WebhookEvent) ShouldInvalidate() bool {
	_, ok := publishTriggers[e.Trigger]
	return ok
}

// VerifyWebhookSignature checks a hex-encoded HMAC-SHA256 signature computed
// over the raw request body. Comparison is constant-time.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
