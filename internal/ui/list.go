package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/oauthcap/internal/server"
)

var _ list.Item = callbackItem{}

// callbackItem wraps a captured [server.Payload] to implement [list.Item].
type callbackItem struct {
	id      string
	at      time.Time
	payload server.Payload
}

func (i callbackItem) FilterValue() string { return i.payload.Provider }
func (i callbackItem) Title() string {
	return fmt.Sprintf("%s on :%d", i.payload.Provider, i.payload.Port)
}
func (i callbackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.at.Format(time.TimeOnly), i.status())
	if i.payload.Failed() {
		desc = fmt.Sprintf("%s • %s", desc, server.Value(i.payload.Error))
	}
	return desc
}

func (i callbackItem) status() string {
	switch {
	case i.payload.Failed():
		return "error"
	case server.Value(i.payload.Code) != "":
		return "ok"
	default:
		return "empty"
	}
}
