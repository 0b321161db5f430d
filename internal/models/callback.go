package models

import (
	"fmt"
	"strings"
	"time"
)

var _ Model = (*CallbackRecord)(nil)

// CallbackRecord is the stored summary of one captured redirect.
type CallbackRecord struct {
	id               string
	sequence         int
	provider         string
	port             int
	hasCode          bool
	hasState         bool
	errorCode        string
	errorDescription string
	receivedAt       time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewCallbackRecord creates a record for a redirect received now.
func NewCallbackRecord(sequence int, provider string, port int) *CallbackRecord {
	now := time.Now()
	return &CallbackRecord{
		sequence:   sequence,
		provider:   provider,
		port:       port,
		receivedAt: now,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (c *CallbackRecord) ID() string               { return c.id }
func (c *CallbackRecord) Sequence() int            { return c.sequence }
func (c *CallbackRecord) Provider() string         { return c.provider }
func (c *CallbackRecord) Port() int                { return c.port }
func (c *CallbackRecord) HasCode() bool            { return c.hasCode }
func (c *CallbackRecord) HasState() bool           { return c.hasState }
func (c *CallbackRecord) ErrorCode() string        { return c.errorCode }
func (c *CallbackRecord) ErrorDescription() string { return c.errorDescription }
func (c *CallbackRecord) ReceivedAt() time.Time    { return c.receivedAt }
func (c *CallbackRecord) CreatedAt() time.Time     { return c.createdAt }
func (c *CallbackRecord) UpdatedAt() time.Time     { return c.updatedAt }
func (c *CallbackRecord) DeletedAt() *time.Time    { return c.deletedAt }

func (c *CallbackRecord) SetID(id string)              { c.id = id }
func (c *CallbackRecord) SetSequence(seq int)          { c.sequence = seq }
func (c *CallbackRecord) SetReceivedAt(t time.Time)    { c.receivedAt = t }
func (c *CallbackRecord) SetCreatedAt(t time.Time)     { c.createdAt = t }
func (c *CallbackRecord) SetUpdatedAt(t time.Time)     { c.updatedAt = t }
func (c *CallbackRecord) SetDeletedAt(t *time.Time)    { c.deletedAt = t }
func (c *CallbackRecord) SetPresence(code, state bool) { c.hasCode, c.hasState = code, state }
func (c *CallbackRecord) SetError(code, description string) {
	c.errorCode, c.errorDescription = code, description
}

// Succeeded reports whether the redirect carried a code and no error.
func (c *CallbackRecord) Succeeded() bool {
	return c.hasCode && c.errorCode == ""
}

// Status is a short label used in listings.
func (c *CallbackRecord) Status() string {
	switch {
	case c.errorCode != "":
		return "error"
	case c.hasCode:
		return "ok"
	default:
		return "empty"
	}
}

// Validate checks required fields.
func (c *CallbackRecord) Validate() error {
	if strings.TrimSpace(c.provider) == "" {
		return fmt.Errorf("provider is required")
	}
	if c.port <= 0 || c.port > 65535 {
		return fmt.Errorf("port %d out of range", c.port)
	}
	if c.receivedAt.IsZero() {
		return fmt.Errorf("received_at is required")
	}
	return nil
}
