// Package flow holds the conversation decision engine. Decide is a pure
// function from (inbound event, conversation state, account snapshot) to
// a transition: the next state, the store mutations to apply, and the
// replies to enqueue. Transport wiring and persistence live elsewhere.
package flow

import (
	"github.com/shopspring/decimal"

	"walletbot/core/telegram/state"
	"walletbot/internal/domain"
)

// Kind tags an inbound conversation event.
type Kind int

const (
	// KindStart is the /start command (after the membership gate).
	KindStart Kind = iota
	// KindLanguageCommand requests the language chooser (/language or the
	// menu button).
	KindLanguageCommand
	// KindLanguageChoice carries a language chooser selection.
	KindLanguageChoice
	// KindMenuWithdraw is the Withdraw menu action.
	KindMenuWithdraw
	// KindWithdrawMethod carries a payment method selection for withdrawal.
	KindWithdrawMethod
	// KindWalletMenu is the Wallet menu action.
	KindWalletMenu
	// KindWalletMethod carries a payment method selection for an address update.
	KindWalletMethod
	// KindText is free text, interpreted against the current mode only.
	KindText
)

// Event is one inbound conversation event.
type Event struct {
	Kind   Kind
	Text   string
	Method domain.Method
	// FromCallback selects edit-in-place for the immediate reply where
	// the view supports it.
	FromCallback bool
}

// State is the conversation state the machine transitions over.
type State struct {
	Mode   state.Mode
	Method domain.Method
}

// Idle returns the idle state.
func Idle() State {
	return State{Mode: state.ModeIdle}
}

// Op selects the outbound primitive for a reply.
type Op int

const (
	// OpSend sends a new message.
	OpSend Op = iota
	// OpEdit edits the triggering message in place, falling back to a
	// fresh send when the target is stale.
	OpEdit
)

// View identifies a localized response template.
type View int

const (
	ViewLanguagePrompt View = iota
	ViewLanguageSaved
	ViewWelcome
	ViewMethodChooser
	ViewWalletChooser
	ViewAddressPrompt
	ViewNewAddressPrompt
	ViewAddressSaved
	ViewAmountPrompt
	ViewInvalidAmount
	ViewInsufficientBalance
	ViewWithdrawRecorded
)

// Reply is one outbound message to enqueue, in order.
type Reply struct {
	Op     Op
	View   View
	Method domain.Method
	Amount decimal.Decimal
}

// MutationKind tags a store mutation requested by a transition.
type MutationKind int

const (
	// MutationSetLanguage persists the account language.
	MutationSetLanguage MutationKind = iota
	// MutationSetAddress persists a payout address for a method.
	MutationSetAddress
	// MutationRecordWithdrawal records a withdrawal request. The balance
	// is never mutated here.
	MutationRecordWithdrawal
)

// Mutation is one store mutation to apply before replies are rendered.
type Mutation struct {
	Kind     MutationKind
	Language domain.Language
	Method   domain.Method
	Address  string
	Amount   decimal.Decimal
}

// Decision is the full outcome of one conversation turn.
type Decision struct {
	Next      State
	Mutations []Mutation
	Replies   []Reply
}
