// Package payload turns the loosely shaped JSON delivered by the push
// service into the notification the worker displays.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrNotObject is returned by Parse when the push data is not a JSON object.
var ErrNotObject = errors.New("push payload is not a JSON object")

// Action is a button rendered on the notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// PushPayload is every field the worker understands, at every location it is
// accepted from. Unknown keys are dropped.
type PushPayload struct {
	Title              string
	Body               string
	Message            string
	Icon               string
	Badge              string
	Image              string
	Tag                string
	RequireInteraction bool
	Renotify           bool
	Actions            []Action

	URL       string // url
	ActionURL string // action_url

	NotificationID      string // notification_id
	NotificationIDCamel string // notificationId
	CustomerID          string // customer_id
	CustomerIDCamel     string // customerId

	Data *PayloadData // data
}

// PayloadData is the nested "data" object some senders use.
type PayloadData struct {
	URL                 string // data.url
	NotificationID      string // data.notification_id
	NotificationIDCamel string // data.notificationId
	CustomerID          string // data.customer_id
	CustomerIDCamel     string // data.customerId
}

type object map[string]json.RawMessage

// Parse decodes raw push data. A value of the wrong JSON type is ignored
// instead of failing the whole payload.
func Parse(raw []byte) (PushPayload, error) {
	obj, ok := decodeObject(raw)
	if !ok {
		return PushPayload{}, ErrNotObject
	}

	p := PushPayload{
		Title:               obj.str("title"),
		Body:                obj.str("body"),
		Message:             obj.str("message"),
		Icon:                obj.str("icon"),
		Badge:               obj.str("badge"),
		Image:               obj.str("image"),
		Tag:                 obj.str("tag"),
		RequireInteraction:  obj.boolean("requireInteraction"),
		Renotify:            obj.boolean("renotify"),
		Actions:             obj.actions("actions"),
		URL:                 obj.str("url"),
		ActionURL:           obj.str("action_url"),
		NotificationID:      obj.id("notification_id"),
		NotificationIDCamel: obj.id("notificationId"),
		CustomerID:          obj.id("customer_id"),
		CustomerIDCamel:     obj.id("customerId"),
	}

	if nested, ok := decodeObject(obj["data"]); ok {
		p.Data = &PayloadData{
			URL:                 nested.str("url"),
			NotificationID:      nested.id("notification_id"),
			NotificationIDCamel: nested.id("notificationId"),
			CustomerID:          nested.id("customer_id"),
			CustomerIDCamel:     nested.id("customerId"),
		}
	}
	return p, nil
}

func decodeObject(raw json.RawMessage) (object, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func (o object) str(key string) string {
	var s string
	if err := json.Unmarshal(o[key], &s); err != nil {
		return ""
	}
	return s
}

func (o object) boolean(key string) bool {
	var b bool
	if err := json.Unmarshal(o[key], &b); err != nil {
		return false
	}
	return b
}

// id accepts a JSON string or number.
func (o object) id(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func (o object) actions(key string) []Action {
	var items []json.RawMessage
	if err := json.Unmarshal(o[key], &items); err != nil {
		return nil
	}
	actions := make([]Action, 0, len(items))
	for _, item := range items {
		var a Action
		if err := json.Unmarshal(item, &a); err != nil {
			continue
		}
		actions = append(actions, a)
	}
	return actions
}
