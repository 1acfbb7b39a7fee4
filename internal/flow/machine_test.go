package flow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletbot/core/telegram/state"
	"walletbot/internal/domain"
)

func account(lang domain.Language, balance string) *domain.Account {
	return &domain.Account{
		ID:       101,
		Name:     "alice",
		Balance:  decimal.RequireFromString(balance),
		Language: lang,
	}
}

func views(d Decision) []View {
	out := make([]View, 0, len(d.Replies))
	for _, r := range d.Replies {
		out = append(out, r.View)
	}
	return out
}

func TestStartWithoutLanguagePromptsChooser(t *testing.T) {
	d := Decide(Event{Kind: KindStart}, Idle(), account(domain.LanguageUnset, "10"))

	assert.Equal(t, state.ModeAwaitingLanguage, d.Next.Mode)
	assert.Empty(t, d.Mutations)
	assert.Equal(t, []View{ViewLanguagePrompt}, views(d))
}

func TestStartWithLanguageShowsMenu(t *testing.T) {
	d := Decide(Event{Kind: KindStart}, Idle(), account(domain.LanguageEnglish, "10"))

	assert.True(t, d.Next.Mode == state.ModeIdle)
	assert.Equal(t, []View{ViewWelcome}, views(d))
}

func TestLanguageChoicePersistsAndShowsMenu(t *testing.T) {
	st := State{Mode: state.ModeAwaitingLanguage}
	d := Decide(Event{Kind: KindLanguageChoice, Text: "persian", FromCallback: true}, st, account(domain.LanguageUnset, "10"))

	require.Len(t, d.Mutations, 1)
	assert.Equal(t, MutationSetLanguage, d.Mutations[0].Kind)
	assert.Equal(t, domain.LanguagePersian, d.Mutations[0].Language)
	assert.Equal(t, state.ModeIdle, d.Next.Mode)
	assert.Equal(t, []View{ViewLanguageSaved, ViewWelcome}, views(d))
}

func TestUnknownLanguageChoiceIgnored(t *testing.T) {
	st := State{Mode: state.ModeAwaitingLanguage}
	d := Decide(Event{Kind: KindLanguageChoice, Text: "klingon"}, st, account(domain.LanguageUnset, "10"))

	assert.Equal(t, st, d.Next)
	assert.Empty(t, d.Mutations)
	assert.Empty(t, d.Replies)
}

func TestWithdrawMethodWithoutAddressAsksForAddress(t *testing.T) {
	d := Decide(Event{Kind: KindWithdrawMethod, Method: domain.MethodTRX, FromCallback: true}, Idle(), account(domain.LanguageEnglish, "10"))

	assert.Equal(t, state.ModeAwaitingAddress, d.Next.Mode)
	assert.Equal(t, domain.MethodTRX, d.Next.Method)
	assert.Equal(t, []View{ViewAddressPrompt}, views(d))
}

func TestWithdrawMethodWithAddressAsksForAmount(t *testing.T) {
	acct := account(domain.LanguageEnglish, "10")
	acct.AddressTRX = "TAbc123"

	d := Decide(Event{Kind: KindWithdrawMethod, Method: domain.MethodTRX, FromCallback: true}, Idle(), acct)

	assert.Equal(t, state.ModeAwaitingAmount, d.Next.Mode)
	assert.Equal(t, []View{ViewAmountPrompt}, views(d))
}

func TestAddressCaptureChainsToAmount(t *testing.T) {
	st := State{Mode: state.ModeAwaitingAddress, Method: domain.MethodBinance}
	d := Decide(Event{Kind: KindText, Text: "  bnb-addr-1 "}, st, account(domain.LanguageEnglish, "10"))

	require.Len(t, d.Mutations, 1)
	assert.Equal(t, MutationSetAddress, d.Mutations[0].Kind)
	assert.Equal(t, "bnb-addr-1", d.Mutations[0].Address)
	assert.Equal(t, state.ModeAwaitingAmount, d.Next.Mode)
	assert.Equal(t, domain.MethodBinance, d.Next.Method)
	assert.Equal(t, []View{ViewAddressSaved, ViewAmountPrompt}, views(d))
}

func TestWhitespaceAddressRepromptsKeepingMode(t *testing.T) {
	st := State{Mode: state.ModeAwaitingAddress, Method: domain.MethodTON}
	d := Decide(Event{Kind: KindText, Text: "   "}, st, account(domain.LanguageEnglish, "10"))

	assert.Equal(t, st, d.Next)
	assert.Empty(t, d.Mutations)
	assert.Equal(t, []View{ViewAddressPrompt}, views(d))
}

func TestInvalidAmountKeepsMode(t *testing.T) {
	st := State{Mode: state.ModeAwaitingAmount, Method: domain.MethodTRX}
	for _, input := range []string{"abc", "-5", "0", ""} {
		d := Decide(Event{Kind: KindText, Text: input}, st, account(domain.LanguageEnglish, "10"))

		assert.Equal(t, st, d.Next, "input %q", input)
		assert.Empty(t, d.Mutations, "input %q", input)
		assert.Equal(t, []View{ViewInvalidAmount}, views(d), "input %q", input)
	}
}

func TestAmountOverBalanceReturnsToMenu(t *testing.T) {
	st := State{Mode: state.ModeAwaitingAmount, Method: domain.MethodTRX}
	d := Decide(Event{Kind: KindText, Text: "50"}, st, account(domain.LanguageEnglish, "10"))

	assert.Equal(t, state.ModeIdle, d.Next.Mode)
	assert.Empty(t, d.Mutations)
	assert.Equal(t, []View{ViewInsufficientBalance, ViewWelcome}, views(d))
}

func TestValidAmountRecordsWithdrawal(t *testing.T) {
	acct := account(domain.LanguageEnglish, "10")
	acct.AddressTRX = "TAbc123"
	st := State{Mode: state.ModeAwaitingAmount, Method: domain.MethodTRX}

	d := Decide(Event{Kind: KindText, Text: "7.50"}, st, acct)

	require.Len(t, d.Mutations, 1)
	mut := d.Mutations[0]
	assert.Equal(t, MutationRecordWithdrawal, mut.Kind)
	assert.Equal(t, domain.MethodTRX, mut.Method)
	assert.Equal(t, "TAbc123", mut.Address)
	assert.True(t, mut.Amount.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, state.ModeIdle, d.Next.Mode)
	assert.Equal(t, []View{ViewWithdrawRecorded, ViewWelcome}, views(d))
}

func TestExactBalanceIsWithdrawable(t *testing.T) {
	st := State{Mode: state.ModeAwaitingAmount, Method: domain.MethodTON}
	d := Decide(Event{Kind: KindText, Text: "10"}, st, account(domain.LanguageEnglish, "10"))

	require.Len(t, d.Mutations, 1)
	assert.Equal(t, MutationRecordWithdrawal, d.Mutations[0].Kind)
}

func TestWalletUpdateSavesAndReturnsToMenu(t *testing.T) {
	st := State{Mode: state.ModeAwaitingWalletUpdate, Method: domain.MethodBinance}
	d := Decide(Event{Kind: KindText, Text: "new-addr"}, st, account(domain.LanguagePersian, "10"))

	require.Len(t, d.Mutations, 1)
	assert.Equal(t, MutationSetAddress, d.Mutations[0].Kind)
	assert.Equal(t, "new-addr", d.Mutations[0].Address)
	assert.Equal(t, state.ModeIdle, d.Next.Mode)
	assert.Equal(t, []View{ViewAddressSaved, ViewWelcome}, views(d))
}

func TestCallbackOverwritesActiveMode(t *testing.T) {
	st := State{Mode: state.ModeAwaitingAmount, Method: domain.MethodTRX}
	d := Decide(Event{Kind: KindWalletMethod, Method: domain.MethodTON, FromCallback: true}, st, account(domain.LanguageEnglish, "10"))

	assert.Equal(t, state.ModeAwaitingWalletUpdate, d.Next.Mode)
	assert.Equal(t, domain.MethodTON, d.Next.Method)
}

func TestIdleTextIsIgnored(t *testing.T) {
	d := Decide(Event{Kind: KindText, Text: "hello"}, Idle(), account(domain.LanguageEnglish, "10"))

	assert.Empty(t, d.Mutations)
	assert.Empty(t, d.Replies)
}

func TestMenuActionsUseEditForCallbacks(t *testing.T) {
	d := Decide(Event{Kind: KindMenuWithdraw, FromCallback: true}, Idle(), account(domain.LanguageEnglish, "10"))
	require.Len(t, d.Replies, 1)
	assert.Equal(t, OpEdit, d.Replies[0].Op)

	d = Decide(Event{Kind: KindLanguageCommand}, Idle(), account(domain.LanguageEnglish, "10"))
	require.Len(t, d.Replies, 1)
	assert.Equal(t, OpSend, d.Replies[0].Op)
}
