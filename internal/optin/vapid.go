package optin

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeApplicationServerKey turns the base64url VAPID key served by the
// backend into the raw bytes expected by PushManager.subscribe.
func DecodeApplicationServerKey(key string) ([]byte, error) {
	padding := strings.Repeat("=", (4-len(key)%4)%4)
	std := strings.NewReplacer("-", "+", "_", "/").Replace(key + padding)

	raw, err := base64.StdEncoding.DecodeString(std)
	if err != nil {
		return nil, fmt.Errorf("decode application server key: %w", err)
	}
	return raw, nil
}
