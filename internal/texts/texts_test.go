package texts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"walletbot/internal/domain"
	"walletbot/internal/flow"
)

func TestLanguagePromptIsBilingual(t *testing.T) {
	got := Render(flow.ViewLanguagePrompt, domain.LanguageUnset, Data{})

	assert.Contains(t, got, "Please choose your preferred language.")
	assert.Contains(t, got, "زبان")
}

func TestWelcomeInterpolatesNameAndBalance(t *testing.T) {
	d := Data{Name: "alice", Balance: decimal.RequireFromString("12.5")}

	en := Render(flow.ViewWelcome, domain.LanguageEnglish, d)
	assert.Equal(t, "Welcome back, alice\nYour balance is $12.5", en)

	fa := Render(flow.ViewWelcome, domain.LanguagePersian, d)
	assert.Contains(t, fa, "alice")
	assert.Contains(t, fa, "$12.5")
}

func TestWelcomeEscapesMarkdownInName(t *testing.T) {
	d := Data{Name: "a_b*c", Balance: decimal.Zero}

	got := Render(flow.ViewWelcome, domain.LanguageEnglish, d)
	assert.NotContains(t, got, "a_b*c")
	assert.Contains(t, got, `a\_b\*c`)
}

func TestUnsetLanguageFallsBackToEnglish(t *testing.T) {
	got := Render(flow.ViewAmountPrompt, domain.LanguageUnset, Data{})
	assert.Equal(t, "Enter withdrawal amount:", got)
}

func TestAddressPromptNamesTheMethod(t *testing.T) {
	got := Render(flow.ViewAddressPrompt, domain.LanguageEnglish, Data{Method: domain.MethodTON})
	assert.Equal(t, "Please send your TON address.", got)

	fa := Render(flow.ViewAddressPrompt, domain.LanguagePersian, Data{Method: domain.MethodTON})
	assert.Contains(t, fa, "TON")
}

func TestWithdrawRecordedCarriesAmount(t *testing.T) {
	got := Render(flow.ViewWithdrawRecorded, domain.LanguageEnglish, Data{Amount: decimal.RequireFromString("7.5")})
	assert.Equal(t, "Request for $7.5 sent, you will be updated in chat.", got)
}

func TestEveryViewRendersInBothLanguages(t *testing.T) {
	views := []flow.View{
		flow.ViewLanguagePrompt, flow.ViewLanguageSaved, flow.ViewWelcome,
		flow.ViewMethodChooser, flow.ViewWalletChooser, flow.ViewAddressPrompt,
		flow.ViewNewAddressPrompt, flow.ViewAddressSaved, flow.ViewAmountPrompt,
		flow.ViewInvalidAmount, flow.ViewInsufficientBalance, flow.ViewWithdrawRecorded,
	}
	d := Data{Name: "bob", Method: domain.MethodBinance}
	for _, v := range views {
		assert.NotEmpty(t, Render(v, domain.LanguageEnglish, d), "view %d english", v)
		assert.NotEmpty(t, Render(v, domain.LanguagePersian, d), "view %d persian", v)
	}
}

func TestMembershipTexts(t *testing.T) {
	en := MembershipRequired(domain.LanguageEnglish, "@mychannel")
	assert.Equal(t, "Please join channel @mychannel to use this bot.", en)

	fa := MembershipRequired(domain.LanguagePersian, "@mychannel")
	assert.Contains(t, fa, "@mychannel")

	assert.NotEmpty(t, MembershipCheckFailed(domain.LanguageEnglish))
	assert.NotEmpty(t, MembershipCheckFailed(domain.LanguagePersian))
}

func TestSupportListsAdmins(t *testing.T) {
	got := Support(domain.LanguageEnglish, []string{"@admin1", "@admin2"})
	assert.Equal(t, "Support contacts:\n@admin1\n@admin2", got)
}
