package optin

import (
	"regexp"
	"strconv"
	"strings"

	"webpush-saas/internal/wire"
)

// Level is how much of the push stack a device offers.
type Level int

const (
	// FullPush devices can subscribe and receive pushes in the background.
	FullPush Level = iota
	// PushNoBackgroundSync devices (iOS web apps) receive pushes but have no
	// background sync.
	PushNoBackgroundSync
	// PushIncapable devices have no service worker or push manager.
	PushIncapable
)

func (l Level) String() string {
	switch l {
	case FullPush:
		return "full-push"
	case PushNoBackgroundSync:
		return "push-no-background-sync"
	case PushIncapable:
		return "push-incapable"
	default:
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
}

// Environment is what the page can observe about its browser.
type Environment struct {
	UserAgent      string
	Platform       string
	MaxTouchPoints int

	NotificationAPI  bool
	ServiceWorkerAPI bool
	PushManagerAPI   bool
}

// Capabilities is the result of Detect.
type Capabilities struct {
	Level         Level
	Notifications bool
	IOS           bool
	Safari        bool
	// IOSMajor is the iOS version parsed from the user agent, 0 when unknown.
	IOSMajor int
}

var (
	iosDevice  = regexp.MustCompile(`iPad|iPhone|iPod`)
	iosVersion = regexp.MustCompile(`OS (\d+)_`)
)

// Detect classifies the environment. All user agent heuristics live here.
func Detect(env Environment) Capabilities {
	caps := Capabilities{
		Notifications: env.NotificationAPI,
		IOS:           isIOS(env),
		Safari:        isSafari(env.UserAgent),
	}
	if m := iosVersion.FindStringSubmatch(env.UserAgent); m != nil {
		caps.IOSMajor, _ = strconv.Atoi(m[1])
	}

	switch {
	case !env.ServiceWorkerAPI || !env.PushManagerAPI:
		caps.Level = PushIncapable
	case caps.IOS:
		caps.Level = PushNoBackgroundSync
	default:
		caps.Level = FullPush
	}
	return caps
}

// Platform is the label sent to the backend.
func (c Capabilities) Platform() string {
	if c.IOS {
		return wire.PlatformIOS
	}
	return wire.PlatformOther
}

// Browser is the label sent to the backend.
func (c Capabilities) Browser() string {
	if c.Safari {
		return wire.BrowserSafari
	}
	return wire.BrowserOther
}

// NeedsIOSWarning reports an iOS device that is unlikely to support web push:
// a non-Safari browser, or iOS older than 16.
func (c Capabilities) NeedsIOSWarning() bool {
	if c.IOS && !c.Safari {
		return true
	}
	return c.IOSMajor > 0 && c.IOSMajor < 16
}

func isIOS(env Environment) bool {
	if iosDevice.MatchString(env.UserAgent) {
		return true
	}
	// iPadOS reports a desktop platform.
	return env.Platform == "MacIntel" && env.MaxTouchPoints > 1
}

// isSafari matches a "safari" token with no "chrome" or "android" before it.
func isSafari(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	at := strings.Index(ua, "safari")
	if at < 0 {
		return false
	}
	for _, excluded := range []string{"chrome", "android"} {
		if i := strings.Index(ua, excluded); i >= 0 && i < at {
			return false
		}
	}
	return true
}
