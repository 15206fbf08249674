// Package wire holds the JSON shapes exchanged between the push worker, the
// opt-in page and the backend.
package wire

// Envelope wraps every successful backend response.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the shape of a failed backend response. Either field may be set.
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns the most specific message carried by the body.
func (b ErrorBody) Text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

// VAPIDKey is returned by GET /public/vapid.
type VAPIDKey struct {
	PublicKey string `json:"vapid_public_key"`
}

// FormFields tells the opt-in page which contact fields are mandatory.
type FormFields struct {
	RequireName  bool `json:"require_name"`
	RequireEmail bool `json:"require_email"`
	RequirePhone bool `json:"require_phone"`
}

// Customization is the visual configuration of an opt-in page.
type Customization struct {
	CompanyName     string `json:"company_name,omitempty"`
	LogoURL         string `json:"logo_url,omitempty"`
	Title           string `json:"title,omitempty"`
	Description     string `json:"description,omitempty"`
	ButtonText      string `json:"button_text,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	PrimaryColor    string `json:"primary_color,omitempty"`
	SecondaryColor  string `json:"secondary_color,omitempty"`
	ButtonTextColor string `json:"button_text_color,omitempty"`
}

// OptInLink is the configuration fetched by token before subscribing.
type OptInLink struct {
	Token         string        `json:"token"`
	Name          string        `json:"name"`
	FormFields    FormFields    `json:"form_fields"`
	Customization Customization `json:"customization"`
}

// SubscriptionKeys are the client keys of a push subscription.
type SubscriptionKeys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscriptionJSON mirrors PushSubscription.toJSON() in the browser.
type PushSubscriptionJSON struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *int64           `json:"expirationTime"`
	Keys           SubscriptionKeys `json:"keys"`
}

// Platform and browser labels sent with a subscription request.
const (
	PlatformIOS   = "ios"
	PlatformOther = "other"
	BrowserSafari = "safari"
	BrowserOther  = "other"
)

// SubscriptionRequest is the body of POST /opt-in/{token}. Subscription is nil
// when the device could not establish a push channel.
type SubscriptionRequest struct {
	Name         string                `json:"name,omitempty"`
	Email        string                `json:"email,omitempty"`
	Phone        string                `json:"phone,omitempty"`
	CustomData   map[string]any        `json:"custom_data"`
	Subscription *PushSubscriptionJSON `json:"subscription"`
	Platform     string                `json:"platform"`
	Browser      string                `json:"browser"`
}

// OptInResult is returned after a successful opt-in.
type OptInResult struct {
	CustomerID string `json:"customer_id"`
	Subscribed bool   `json:"subscribed"`
}

// TrackingRequest is the body of the delivered and clicked receipts.
type TrackingRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
}

// TrackingResult is returned by the receipt endpoints.
type TrackingResult struct {
	Recorded bool `json:"recorded"`
}
