package optin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	uaIPhoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.4 Mobile/15E148 Safari/604.1"
	uaIPhoneOld     = "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1"
	uaDesktopChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaAndroidChrome = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaMacSafari     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	uaFirefox       = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

func fullEnv(ua string) Environment {
	return Environment{UserAgent: ua, NotificationAPI: true, ServiceWorkerAPI: true, PushManagerAPI: true}
}

func TestDetect(t *testing.T) {
	testCases := []struct {
		name     string
		env      Environment
		level    Level
		ios      bool
		safari   bool
		iosMajor int
	}{
		{"iphone safari", fullEnv(uaIPhoneSafari), PushNoBackgroundSync, true, true, 16},
		{"desktop chrome", fullEnv(uaDesktopChrome), FullPush, false, false, 0},
		{"android chrome", fullEnv(uaAndroidChrome), FullPush, false, false, 0},
		{"mac safari", fullEnv(uaMacSafari), FullPush, false, true, 0},
		{"firefox", fullEnv(uaFirefox), FullPush, false, false, 0},
		{
			"ipad reporting a desktop platform",
			Environment{UserAgent: uaMacSafari, Platform: "MacIntel", MaxTouchPoints: 5, NotificationAPI: true, ServiceWorkerAPI: true, PushManagerAPI: true},
			PushNoBackgroundSync, true, true, 0,
		},
		{
			"no push manager",
			Environment{UserAgent: uaIPhoneOld, NotificationAPI: true, ServiceWorkerAPI: true},
			PushIncapable, true, true, 15,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			caps := Detect(tc.env)
			assert.Equal(t, tc.level, caps.Level)
			assert.Equal(t, tc.ios, caps.IOS)
			assert.Equal(t, tc.safari, caps.Safari)
			assert.Equal(t, tc.iosMajor, caps.IOSMajor)
		})
	}
}

func TestCapabilities_Labels(t *testing.T) {
	ios := Detect(fullEnv(uaIPhoneSafari))
	assert.Equal(t, "ios", ios.Platform())
	assert.Equal(t, "safari", ios.Browser())

	chrome := Detect(fullEnv(uaDesktopChrome))
	assert.Equal(t, "other", chrome.Platform())
	assert.Equal(t, "other", chrome.Browser())
}

func TestCapabilities_NeedsIOSWarning(t *testing.T) {
	assert.False(t, Detect(fullEnv(uaIPhoneSafari)).NeedsIOSWarning())
	assert.True(t, Detect(fullEnv(uaIPhoneOld)).NeedsIOSWarning())
	assert.False(t, Detect(fullEnv(uaDesktopChrome)).NeedsIOSWarning())

	iosChrome := Capabilities{IOS: true, Safari: false}
	assert.True(t, iosChrome.NeedsIOSWarning())
}
