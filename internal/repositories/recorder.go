package repositories

import (
	"fmt"

	"github.com/desertthunder/oauthcap/internal/models"
	"github.com/desertthunder/oauthcap/internal/server"
)

// CallbackRecorder turns listener payloads into [models.CallbackRecord] rows.
//
// Only presence of code and state is kept, never their values.
type CallbackRecorder struct {
	repo *CallbackRepository
}

// NewCallbackRecorder creates a new CallbackRecorder with the given repository
func NewCallbackRecorder(repo *CallbackRepository) *CallbackRecorder {
	return &CallbackRecorder{repo: repo}
}

// Record stores p as received on port. A zero port falls back to p.Port.
func (c *CallbackRecorder) Record(p server.Payload, port int) (*models.CallbackRecord, error) {
	if port == 0 {
		port = int(p.Port)
	}
	record := models.NewCallbackRecord(0, p.Provider, port)
	record.SetPresence(p.Code != nil && *p.Code != "", p.State != nil && *p.State != "")
	record.SetError(server.Value(p.Error), server.Value(p.ErrorDescription))

	if err := c.repo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to record callback: %w", err)
	}
	return record, nil
}
