package bot

import (
	tele "gopkg.in/telebot.v4"

	"walletbot/core/telegram/keyboard"
	"walletbot/internal/domain"
)

// Callback registry keys. Button uniques must match these exactly.
const (
	cbLanguageMenu   = "lang"
	cbSetLanguage    = "setlang"
	cbWithdrawMenu   = "withdraw"
	cbWithdrawMethod = "pm"
	cbWalletMenu     = "wallet"
	cbWalletMethod   = "wu"
	cbUploadAccount  = "upload"
)

// mainMenu is the inline keyboard attached to the welcome message.
func mainMenu(lang domain.Language) *tele.ReplyMarkup {
	fa := lang == domain.LanguagePersian
	label := func(en, pe string) string {
		if fa {
			return pe
		}
		return en
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: label("🌐 Language", "🌐 زبان"), Unique: cbLanguageMenu}},
		[]keyboard.InlineBtn{{Text: label("📤 Upload Account", "📤 آپلود حساب"), Unique: cbUploadAccount}},
		[]keyboard.InlineBtn{{Text: label("💼 Wallet", "💼 کیف پول"), Unique: cbWalletMenu}},
		[]keyboard.InlineBtn{{Text: label("💸 Withdraw", "💸 برداشت"), Unique: cbWithdrawMenu}},
	)
}

// languageChooser offers the supported languages.
func languageChooser() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🇬🇧 English", Unique: cbSetLanguage, Data: string(domain.LanguageEnglish)}},
		[]keyboard.InlineBtn{{Text: "🇮🇷 فارسی", Unique: cbSetLanguage, Data: string(domain.LanguagePersian)}},
	)
}

// methodChooser lists the payout methods, routed to the given callback key.
func methodChooser(unique string) *tele.ReplyMarkup {
	row := make([]keyboard.InlineBtn, 0, len(domain.Methods))
	for _, m := range domain.Methods {
		row = append(row, keyboard.InlineBtn{Text: m.Label(), Unique: unique, Data: string(m)})
	}
	return keyboard.InlineButtonsRows(row)
}
