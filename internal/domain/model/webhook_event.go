package model

import (
	"encoding/json"
	"strconv"
)

// Webhook event types pushed by the payment provider.
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventSubscriptionPaid     = "subscription.paid"
	EventSubscriptionCanceled = "subscription.canceled"
	EventSubscriptionExpired  = "subscription.expired"
)

// Product billing types.
const (
	BillingTypeRecurring = "recurring"
	BillingTypeOneTime   = "one-time"
)

// WebhookEvent is the untrusted payload the provider POSTs to the webhook
// endpoint. No schema is guaranteed; metadata fields are optional and the
// reconciler substitutes documented defaults for missing values.
type WebhookEvent struct {
	ID        string      `json:"id"`
	EventType string      `json:"eventType"`
	Object    EventObject `json:"object"`
}

// EventObject carries the provider-side object the event refers to: a payment
// for one-time checkouts, a subscription for recurring events.
type EventObject struct {
	ID        string        `json:"id"`         // provider payment or subscription id
	RequestID string        `json:"request_id"` // correlation id; user id for one-time checkouts
	Customer  EventCustomer `json:"customer"`
	Product   *EventProduct `json:"product"`
	Status    string        `json:"status"`
	Metadata  EventMetadata `json:"metadata"`
}

type EventProduct struct {
	ID          string `json:"id"`
	BillingType string `json:"billing_type"`
}

// EventCustomer accepts both the compact form ("cus_123") and the expanded
// object form ({"id":"cus_123",...}) the provider uses interchangeably.
type EventCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *EventCustomer) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &c.ID)
	}
	type alias EventCustomer
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = EventCustomer(a)
	return nil
}

// EventMetadata is the open-ended string-keyed mapping on the event object.
// Values arrive as strings or JSON numbers depending on how the checkout was
// created, so accessors normalize both representations.
type EventMetadata map[string]any

func (m EventMetadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (m EventMetadata) Int64(key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Int64Or returns the metadata value for key, or def when absent or mistyped.
func (m EventMetadata) Int64Or(key string, def int64) int64 {
	if n, ok := m.Int64(key); ok {
		return n
	}
	return def
}

// StringOr returns the metadata value for key, or def when absent or empty.
func (m EventMetadata) StringOr(key, def string) string {
	if s, ok := m.String(key); ok {
		return s
	}
	return def
}
