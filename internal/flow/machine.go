package flow

import (
	"strings"

	"github.com/shopspring/decimal"

	"walletbot/core/telegram/state"
	"walletbot/internal/domain"
)

// Decide computes the transition for one inbound event. It never touches
// the store or the transport; acct is a snapshot of the caller's account
// after lazy creation, so it is always non-nil.
//
// Chooser callbacks are accepted from any mode and overwrite in-flight
// state; free text is interpreted strictly against the current mode.
func Decide(ev Event, st State, acct *domain.Account) Decision {
	switch ev.Kind {
	case KindStart:
		if acct.Language == domain.LanguageUnset {
			return Decision{
				Next:    State{Mode: state.ModeAwaitingLanguage},
				Replies: []Reply{{Op: OpSend, View: ViewLanguagePrompt}},
			}
		}
		return Decision{
			Next:    Idle(),
			Replies: []Reply{{Op: OpSend, View: ViewWelcome}},
		}

	case KindLanguageCommand:
		return Decision{
			Next:    State{Mode: state.ModeAwaitingLanguage},
			Replies: []Reply{{Op: replyOp(ev), View: ViewLanguagePrompt}},
		}

	case KindLanguageChoice:
		lang, ok := domain.ParseLanguage(ev.Text)
		if !ok {
			// Unrecognized choices are ignored outright.
			return Decision{Next: st}
		}
		return Decision{
			Next:      Idle(),
			Mutations: []Mutation{{Kind: MutationSetLanguage, Language: lang}},
			Replies: []Reply{
				{Op: OpSend, View: ViewLanguageSaved},
				{Op: OpSend, View: ViewWelcome},
			},
		}

	case KindMenuWithdraw:
		return Decision{
			Next:    Idle(),
			Replies: []Reply{{Op: replyOp(ev), View: ViewMethodChooser}},
		}

	case KindWalletMenu:
		return Decision{
			Next:    Idle(),
			Replies: []Reply{{Op: replyOp(ev), View: ViewWalletChooser}},
		}

	case KindWithdrawMethod:
		if acct.Address(ev.Method) == "" {
			return Decision{
				Next:    State{Mode: state.ModeAwaitingAddress, Method: ev.Method},
				Replies: []Reply{{Op: OpSend, View: ViewAddressPrompt, Method: ev.Method}},
			}
		}
		return Decision{
			Next:    State{Mode: state.ModeAwaitingAmount, Method: ev.Method},
			Replies: []Reply{{Op: OpSend, View: ViewAmountPrompt, Method: ev.Method}},
		}

	case KindWalletMethod:
		return Decision{
			Next:    State{Mode: state.ModeAwaitingWalletUpdate, Method: ev.Method},
			Replies: []Reply{{Op: OpSend, View: ViewNewAddressPrompt, Method: ev.Method}},
		}

	case KindText:
		return decideText(ev, st, acct)
	}

	return Decision{Next: st}
}

func decideText(ev Event, st State, acct *domain.Account) Decision {
	switch st.Mode {
	case state.ModeAwaitingAddress:
		addr := strings.TrimSpace(ev.Text)
		if addr == "" {
			// Whitespace-only input: re-prompt, keep waiting.
			return Decision{
				Next:    st,
				Replies: []Reply{{Op: OpSend, View: ViewAddressPrompt, Method: st.Method}},
			}
		}
		// Address capture chains straight into amount capture.
		return Decision{
			Next:      State{Mode: state.ModeAwaitingAmount, Method: st.Method},
			Mutations: []Mutation{{Kind: MutationSetAddress, Method: st.Method, Address: addr}},
			Replies: []Reply{
				{Op: OpSend, View: ViewAddressSaved, Method: st.Method},
				{Op: OpSend, View: ViewAmountPrompt, Method: st.Method},
			},
		}

	case state.ModeAwaitingAmount:
		amt, err := decimal.NewFromString(strings.TrimSpace(ev.Text))
		if err != nil || !amt.IsPositive() {
			// Invalid input is the only user-visible error; the mode is
			// preserved so the user can retry.
			return Decision{
				Next:    st,
				Replies: []Reply{{Op: OpSend, View: ViewInvalidAmount}},
			}
		}
		if amt.GreaterThan(acct.Balance) {
			return Decision{
				Next: Idle(),
				Replies: []Reply{
					{Op: OpSend, View: ViewInsufficientBalance},
					{Op: OpSend, View: ViewWelcome},
				},
			}
		}
		return Decision{
			Next: Idle(),
			Mutations: []Mutation{{
				Kind:    MutationRecordWithdrawal,
				Method:  st.Method,
				Address: acct.Address(st.Method),
				Amount:  amt,
			}},
			Replies: []Reply{
				{Op: OpSend, View: ViewWithdrawRecorded, Method: st.Method, Amount: amt},
				{Op: OpSend, View: ViewWelcome},
			},
		}

	case state.ModeAwaitingWalletUpdate:
		addr := strings.TrimSpace(ev.Text)
		if addr == "" {
			return Decision{
				Next:    st,
				Replies: []Reply{{Op: OpSend, View: ViewNewAddressPrompt, Method: st.Method}},
			}
		}
		return Decision{
			Next:      Idle(),
			Mutations: []Mutation{{Kind: MutationSetAddress, Method: st.Method, Address: addr}},
			Replies: []Reply{
				{Op: OpSend, View: ViewAddressSaved, Method: st.Method},
				{Op: OpSend, View: ViewWelcome},
			},
		}
	}

	// Idle and awaiting_language consume nothing from bare text.
	return Decision{Next: st}
}

func replyOp(ev Event) Op {
	if ev.FromCallback {
		return OpEdit
	}
	return OpSend
}
