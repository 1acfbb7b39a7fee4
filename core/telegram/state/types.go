// Package state provides a lightweight per-user conversation state
// container for Telegram bots. It tracks which free-text input is
// expected next and serializes handling per user id.
package state

import tele "gopkg.in/telebot.v4"

// Mode identifies what free-text input a conversation expects next.
type Mode string

const (
	// ModeIdle indicates there is no active conversation with the user.
	ModeIdle Mode = "idle"
	// ModeAwaitingLanguage is set while the language chooser is pending.
	ModeAwaitingLanguage Mode = "awaiting_language"
	// ModeAwaitingAddress expects a payout address for Session.Param.
	ModeAwaitingAddress Mode = "awaiting_address"
	// ModeAwaitingAmount expects a withdrawal amount for Session.Param.
	ModeAwaitingAmount Mode = "awaiting_withdraw_amount"
	// ModeAwaitingWalletUpdate expects a replacement address for Session.Param.
	ModeAwaitingWalletUpdate Mode = "awaiting_wallet_update"
)

// Session is the conversation state of a single user: the awaiting mode
// and its parameter (the payout method for parameterized modes).
// At most one mode is active per user at a time.
type Session struct {
	Mode  Mode
	Param string
}

// Idle reports whether the session expects no input.
func (s Session) Idle() bool {
	return s.Mode == ModeIdle || s.Mode == ""
}

// Manager stores user sessions and serializes event handling per user.
type Manager interface {
	Get(userID int64) Session
	Set(userID int64, s Session)
	Clear(userID int64)

	// InProgress reports whether the user has an active non-idle mode.
	InProgress(userID int64) bool

	// Do runs fn while holding the user's exclusive lock, so concurrent
	// events for the same user id cannot interleave on the session.
	Do(userID int64, fn func())

	// SetTextHandler registers the handler invoked for free text while a
	// mode is active.
	SetTextHandler(h tele.HandlerFunc)
	// ManagerHandler executes the registered text handler under the
	// user's lock.
	ManagerHandler(c tele.Context) error
}
