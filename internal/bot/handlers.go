// Package bot wires Telegram updates to the conversation flow: commands
// and callbacks build flow events, the decision is applied against the
// services, and replies go out through the dispatch queue.
package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"walletbot/core/logger"
	"walletbot/core/telegram/callbacks"
	tghelpers "walletbot/core/telegram/helpers"
	"walletbot/core/telegram/state"
	"walletbot/internal/domain"
	"walletbot/internal/flow"
	"walletbot/internal/service"
	"walletbot/internal/sysconfig"
	"walletbot/internal/texts"
)

// storeStatus is the supervisor surface the handlers need: a readiness
// check and a reconnect nudge.
type storeStatus interface {
	Ready() bool
	Trigger()
}

// Handlers binds the conversation flow to its collaborators.
type Handlers struct {
	sup         storeStatus
	accounts    *service.Accounts
	withdrawals *service.Withdrawals
	sysCfg      *sysconfig.Cache
	states      state.Manager
	member      func(c tele.Context, channel string, userID int64) (bool, error)
}

// NewHandlers builds the handler set and registers the free-text hook.
func NewHandlers(
	sup storeStatus,
	accounts *service.Accounts,
	withdrawals *service.Withdrawals,
	sysCfg *sysconfig.Cache,
	states state.Manager,
) *Handlers {
	h := &Handlers{
		sup:         sup,
		accounts:    accounts,
		withdrawals: withdrawals,
		sysCfg:      sysCfg,
		states:      states,
		member: func(c tele.Context, channel string, userID int64) (bool, error) {
			return isChannelMember(c.Bot(), channel, userID)
		},
	}
	states.SetTextHandler(h.handleText)
	return h
}

// storeReady drops the update when the store is down and nudges the
// supervisor to reconnect.
func (h *Handlers) storeReady(ctx context.Context, c tele.Context) bool {
	if h.sup.Ready() {
		return true
	}
	logger.TG.LogAttrs(ctx, slog.LevelWarn, "update dropped, store not ready",
		slog.Int64("user_id", c.Sender().ID),
	)
	h.sup.Trigger()
	return false
}

// prepare runs the per-update preamble: store readiness and the account
// snapshot. A not-ready store logs and drops the update.
func (h *Handlers) prepare(c tele.Context) (context.Context, *domain.Account, bool) {
	ctx := tghelpers.BuildContext(c)
	if !h.storeReady(ctx, c) {
		return ctx, nil, false
	}
	acct, err := h.accounts.Ensure(ctx, c.Sender().ID, senderName(c))
	if err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelError, "account lookup failed",
			slog.Int64("user_id", c.Sender().ID),
			slog.Any("err", err),
		)
		return ctx, nil, false
	}
	return ctx, acct, true
}

// Start handles /start: membership gate first, then the account is
// created and the flow entered. Users who never pass the gate leave no
// account behind.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if !h.storeReady(ctx, c) {
		return nil
	}
	userID := c.Sender().ID
	if channel := h.sysCfg.Channel(); channel != "" {
		lang := h.knownLanguage(ctx, userID)
		member, err := h.member(c, channel, userID)
		if err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "membership check failed",
				slog.Int64("user_id", userID),
				slog.String("channel", channel),
				slog.Any("err", err),
			)
			return tghelpers.SendMD(c, texts.MembershipCheckFailed(lang))
		}
		if !member {
			return tghelpers.SendMD(c, texts.MembershipRequired(lang, channel))
		}
	}
	acct, err := h.accounts.Ensure(ctx, userID, senderName(c))
	if err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelError, "account lookup failed",
			slog.Int64("user_id", userID),
			slog.Any("err", err),
		)
		return nil
	}
	return h.lockedDispatch(c, ctx, acct, flow.Event{Kind: flow.KindStart})
}

// knownLanguage peeks at the account language without creating one.
// Unknown users get the unset fallback, which renders bilingually.
func (h *Handlers) knownLanguage(ctx context.Context, userID int64) domain.Language {
	acct, err := h.accounts.Lookup(ctx, userID)
	if err != nil || acct == nil {
		return domain.LanguageUnset
	}
	return acct.Language
}

// LanguageCmd handles /language.
func (h *Handlers) LanguageCmd(c tele.Context) error {
	ctx, acct, ok := h.prepare(c)
	if !ok {
		return nil
	}
	return h.lockedDispatch(c, ctx, acct, flow.Event{Kind: flow.KindLanguageCommand})
}

// Help lists the support contacts from the system configuration.
func (h *Handlers) Help(c tele.Context) error {
	_, acct, ok := h.prepare(c)
	if !ok {
		return nil
	}
	return tghelpers.SendMD(c, texts.Support(acct.Language, h.sysCfg.Admins()))
}

// LanguageMenu handles the Language menu button.
func (h *Handlers) LanguageMenu(c tele.Context) error {
	return h.callbackEvent(c, flow.Event{Kind: flow.KindLanguageCommand, FromCallback: true})
}

// SetLanguage handles a language chooser selection.
func (h *Handlers) SetLanguage(c tele.Context) error {
	return h.callbackEvent(c, flow.Event{Kind: flow.KindLanguageChoice, Text: callbacks.CallbackPayload(c), FromCallback: true})
}

// WithdrawMenu handles the Withdraw menu button.
func (h *Handlers) WithdrawMenu(c tele.Context) error {
	return h.callbackEvent(c, flow.Event{Kind: flow.KindMenuWithdraw, FromCallback: true})
}

// WithdrawMethod handles a payment method selection for withdrawal.
func (h *Handlers) WithdrawMethod(c tele.Context) error {
	method, ok := domain.ParseMethod(callbacks.CallbackPayload(c))
	if !ok {
		return nil
	}
	return h.callbackEvent(c, flow.Event{Kind: flow.KindWithdrawMethod, Method: method, FromCallback: true})
}

// WalletMenu handles the Wallet menu button.
func (h *Handlers) WalletMenu(c tele.Context) error {
	return h.callbackEvent(c, flow.Event{Kind: flow.KindWalletMenu, FromCallback: true})
}

// WalletMethod handles a payment method selection for an address update.
func (h *Handlers) WalletMethod(c tele.Context) error {
	method, ok := domain.ParseMethod(callbacks.CallbackPayload(c))
	if !ok {
		return nil
	}
	return h.callbackEvent(c, flow.Event{Kind: flow.KindWalletMethod, Method: method, FromCallback: true})
}

// callbackEvent runs a callback-originated event under the user's lock,
// so it cannot interleave with free-text handling for the same user.
func (h *Handlers) callbackEvent(c tele.Context, ev flow.Event) error {
	ctx, acct, ok := h.prepare(c)
	if !ok {
		return nil
	}
	return h.lockedDispatch(c, ctx, acct, ev)
}

// lockedDispatch runs one conversation turn under the user's lock.
// Every event source except free text (where the state manager already
// holds the lock) must enter the flow through here.
func (h *Handlers) lockedDispatch(c tele.Context, ctx context.Context, acct *domain.Account, ev flow.Event) error {
	var err error
	h.states.Do(acct.ID, func() {
		err = h.dispatch(c, ctx, acct, ev)
	})
	return err
}

// handleText is invoked by the state manager for free text while a mode
// is active. The manager already holds the user's lock.
func (h *Handlers) handleText(c tele.Context) error {
	ctx, acct, ok := h.prepare(c)
	if !ok {
		return nil
	}
	return h.dispatch(c, ctx, acct, flow.Event{Kind: flow.KindText, Text: c.Text()})
}

// dispatch runs one conversation turn: decide, persist, reply.
func (h *Handlers) dispatch(c tele.Context, ctx context.Context, acct *domain.Account, ev flow.Event) error {
	st := h.currentState(acct.ID)
	decision := flow.Decide(ev, st, acct)

	for _, mut := range decision.Mutations {
		if err := h.applyMutation(ctx, acct, mut); err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelError, "mutation failed",
				slog.Int64("user_id", acct.ID),
				slog.Any("err", err),
			)
			return err
		}
	}

	h.storeState(acct.ID, decision.Next)

	for _, reply := range decision.Replies {
		if err := h.render(c, acct, reply); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) applyMutation(ctx context.Context, acct *domain.Account, mut flow.Mutation) error {
	switch mut.Kind {
	case flow.MutationSetLanguage:
		if err := h.accounts.SetLanguage(ctx, acct.ID, mut.Language); err != nil {
			return err
		}
		acct.Language = mut.Language
	case flow.MutationSetAddress:
		if err := h.accounts.SaveAddress(ctx, acct.ID, mut.Method, mut.Address); err != nil {
			return err
		}
		acct.SetAddress(mut.Method, mut.Address)
	case flow.MutationRecordWithdrawal:
		if _, err := h.withdrawals.Record(ctx, acct, mut.Method, mut.Amount); err != nil {
			return err
		}
	}
	return nil
}

// render enqueues one reply through the dispatch queue.
func (h *Handlers) render(c tele.Context, acct *domain.Account, reply flow.Reply) error {
	text := texts.Render(reply.View, acct.Language, texts.Data{
		Name:    acct.Name,
		Balance: acct.Balance,
		Method:  reply.Method,
		Amount:  reply.Amount,
		Channel: h.sysCfg.Channel(),
	})
	markup := h.markupFor(reply.View, acct.Language)

	if reply.Op == flow.OpEdit {
		if markup != nil {
			return tghelpers.EditOrSendMD(c, text, markup)
		}
		return tghelpers.EditOrSendMD(c, text)
	}
	if markup != nil {
		return tghelpers.SendMD(c, text, markup)
	}
	return tghelpers.SendMD(c, text)
}

func (h *Handlers) markupFor(v flow.View, lang domain.Language) *tele.ReplyMarkup {
	switch v {
	case flow.ViewWelcome:
		return mainMenu(lang)
	case flow.ViewLanguagePrompt:
		return languageChooser()
	case flow.ViewMethodChooser:
		return methodChooser(cbWithdrawMethod)
	case flow.ViewWalletChooser:
		return methodChooser(cbWalletMethod)
	}
	return nil
}

func (h *Handlers) currentState(userID int64) flow.State {
	sess := h.states.Get(userID)
	st := flow.State{Mode: sess.Mode}
	if method, ok := domain.ParseMethod(sess.Param); ok {
		st.Method = method
	}
	if sess.Idle() {
		return flow.Idle()
	}
	return st
}

func (h *Handlers) storeState(userID int64, st flow.State) {
	if st.Mode == state.ModeIdle || st.Mode == "" {
		h.states.Clear(userID)
		return
	}
	h.states.Set(userID, state.Session{Mode: st.Mode, Param: string(st.Method)})
}

func senderName(c tele.Context) string {
	u := c.Sender()
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
