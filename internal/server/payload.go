package server

import "fmt"

// CallbackEvent is the event name published for every captured redirect.
const CallbackEvent = "oauth-callback"

// Payload is the structured content of one OAuth redirect.
//
// Optional fields are nil when the provider did not send them and encode as JSON null.
// Port is the listener that captured the redirect and is not part of the wire form.
type Payload struct {
	Port             uint16  `json:"-"`
	Provider         string  `json:"provider"`
	Code             *string `json:"code"`
	State            *string `json:"state"`
	Error            *string `json:"error"`
	ErrorDescription *string `json:"error_description"`
}

// NewPayload builds a [Payload] for provider from the decoded query.
func NewPayload(provider string, q QueryParams) Payload {
	return Payload{
		Provider:         provider,
		Code:             q.Lookup("code"),
		State:            q.Lookup("state"),
		Error:            q.Lookup("error"),
		ErrorDescription: q.Lookup("error_description"),
	}
}

// Failed reports whether the provider redirected with an error.
func (p Payload) Failed() bool {
	return p.Error != nil
}

// Err converts a provider error redirect into a Go error.
func (p Payload) Err() error {
	if p.Error == nil {
		return nil
	}
	if p.ErrorDescription != nil && *p.ErrorDescription != "" {
		return fmt.Errorf("%s: %s - %s", p.Provider, *p.Error, *p.ErrorDescription)
	}
	return fmt.Errorf("%s: %s", p.Provider, *p.Error)
}

// Value dereferences an optional field, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
