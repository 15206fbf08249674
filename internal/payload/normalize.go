package payload

// DefaultTitle is shown when a push carries no title.
const DefaultTitle = "Nova Notificação"

// DefaultURL is opened when a push names no destination.
const DefaultURL = "/"

// DefaultTag groups notifications that did not ask for a tag.
const DefaultTag = "default"

// NotificationData is stored on the displayed notification and read back
// when it is clicked.
type NotificationData struct {
	URL            string `json:"url"`
	NotificationID string `json:"notificationId,omitempty"`
	CustomerID     string `json:"customerId,omitempty"`
}

// Notification is the canonical record handed to the display API.
type Notification struct {
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Icon               string           `json:"icon"`
	Badge              string           `json:"badge"`
	Image              string           `json:"image,omitempty"`
	Actions            []Action         `json:"actions"`
	RequireInteraction bool             `json:"requireInteraction"`
	Tag                string           `json:"tag"`
	Renotify           bool             `json:"renotify"`
	Data               NotificationData `json:"data"`
}

// Defaults are the installation specific fallbacks.
type Defaults struct {
	Icon  string
	Badge string
}

// StandardDefaults matches the assets shipped with the opt-in page.
var StandardDefaults = Defaults{Icon: "/logo.png", Badge: "/badge.png"}

// Normalize never fails: every absent field falls back to a default.
func Normalize(p PushPayload) Notification {
	return NormalizeWith(p, StandardDefaults)
}

// NormalizeWith is Normalize with installation specific icon and badge.
func NormalizeWith(p PushPayload, d Defaults) Notification {
	actions := p.Actions
	if actions == nil {
		actions = []Action{}
	}

	return Notification{
		Title:              firstNonEmpty(p.Title, DefaultTitle),
		Body:               firstNonEmpty(p.Body, p.Message),
		Icon:               firstNonEmpty(p.Icon, d.Icon),
		Badge:              firstNonEmpty(p.Badge, d.Badge),
		Image:              p.Image,
		Actions:            actions,
		RequireInteraction: p.RequireInteraction,
		Tag:                firstNonEmpty(p.Tag, DefaultTag),
		Renotify:           p.Renotify,
		Data: NotificationData{
			URL:            ActionURL(p),
			NotificationID: NotificationID(p),
			CustomerID:     CustomerID(p),
		},
	}
}

// ActionURL resolves the destination: url, then action_url, then data.url.
func ActionURL(p PushPayload) string {
	var nested string
	if p.Data != nil {
		nested = p.Data.URL
	}
	return firstNonEmpty(p.URL, p.ActionURL, nested, DefaultURL)
}

// NotificationID returns the first id found, top level keys before data.*.
func NotificationID(p PushPayload) string {
	var nested, nestedCamel string
	if p.Data != nil {
		nested, nestedCamel = p.Data.NotificationID, p.Data.NotificationIDCamel
	}
	return firstNonEmpty(p.NotificationID, p.NotificationIDCamel, nested, nestedCamel)
}

// CustomerID returns the first customer id found, top level keys before data.*.
func CustomerID(p PushPayload) string {
	var nested, nestedCamel string
	if p.Data != nil {
		nested, nestedCamel = p.Data.CustomerID, p.Data.CustomerIDCamel
	}
	return firstNonEmpty(p.CustomerID, p.CustomerIDCamel, nested, nestedCamel)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
