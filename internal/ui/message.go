package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/oauthcap/internal/events"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCallback MsgKind = iota
	MsgListeners
	MsgFeedClosed
)

// callbackMsg is the constructor for [MsgCallback]
func callbackMsg(ev events.Event) Msg {
	return Msg{kind: MsgCallback, data: ev}
}

// listenersMsg is the constructor for [MsgListeners]
func listenersMsg(ports []uint16, err error) Msg {
	return Msg{
		kind: MsgListeners,
		data: struct {
			ports []uint16
			err   error
		}{ports, err},
	}
}

// feedClosedMsg is the constructor for [MsgFeedClosed]
func feedClosedMsg() Msg {
	return Msg{kind: MsgFeedClosed}
}
