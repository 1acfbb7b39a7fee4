// Package texts renders localized response texts. The language is taken
// from the account at render time, so a language change mid-flow shows
// up on the very next reply.
package texts

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"walletbot/core/telegram/format"
	"walletbot/internal/domain"
	"walletbot/internal/flow"
)

// Data carries the dynamic values a view may interpolate.
type Data struct {
	Name    string
	Balance decimal.Decimal
	Method  domain.Method
	Amount  decimal.Decimal
	Channel string
}

// Render returns the localized text for a view. Unset language falls
// back to English except where a bilingual prompt exists.
func Render(v flow.View, lang domain.Language, d Data) string {
	fa := lang == domain.LanguagePersian
	switch v {
	case flow.ViewLanguagePrompt:
		return "لطفا زبان موردنظرتان را انتخاب کنید.\n\nPlease choose your preferred language."
	case flow.ViewLanguageSaved:
		if fa {
			return "زبان بروزرسانی شد"
		}
		return "Language updated"
	case flow.ViewWelcome:
		name := escapeName(d.Name)
		if fa {
			return fmt.Sprintf("خوش برگشتی %s\nموجودی شما: $%s", name, d.Balance)
		}
		return fmt.Sprintf("Welcome back, %s\nYour balance is $%s", name, d.Balance)
	case flow.ViewMethodChooser:
		if fa {
			return fmt.Sprintf("موجودی شما: $%s\nروش پرداخت را انتخاب کنید", d.Balance)
		}
		return fmt.Sprintf("Your balance: $%s\nSelect payment method", d.Balance)
	case flow.ViewWalletChooser:
		if fa {
			return "آدرس کدام روش پرداخت را می‌خواهید تغییر دهید؟"
		}
		return "Which payment method address do you want to change?"
	case flow.ViewAddressPrompt:
		if fa {
			return fmt.Sprintf("لطفا آدرس %s خود را ارسال کنید.", d.Method.Label())
		}
		return fmt.Sprintf("Please send your %s address.", d.Method.Label())
	case flow.ViewNewAddressPrompt:
		if fa {
			return fmt.Sprintf("آدرس جدید %s خود را ارسال کنید.", d.Method.Label())
		}
		return fmt.Sprintf("Send your new %s address.", d.Method.Label())
	case flow.ViewAddressSaved:
		if fa {
			return fmt.Sprintf("آدرس %s ذخیره شد.", d.Method.Label())
		}
		return fmt.Sprintf("%s address saved.", d.Method.Label())
	case flow.ViewAmountPrompt:
		if fa {
			return "مبلغ برداشت را وارد کنید:"
		}
		return "Enter withdrawal amount:"
	case flow.ViewInvalidAmount:
		if fa {
			return "مبلغ نامعتبر است، یک عدد مثبت ارسال کنید."
		}
		return "Invalid amount, please send a positive number."
	case flow.ViewInsufficientBalance:
		if fa {
			return "موجودی ناکافی است"
		}
		return "Insufficient balance"
	case flow.ViewWithdrawRecorded:
		if fa {
			return fmt.Sprintf("درخواست $%s ثبت شد، نتیجه در همین گفتگو اعلام می‌شود.", d.Amount)
		}
		return fmt.Sprintf("Request for $%s sent, you will be updated in chat.", d.Amount)
	}
	return ""
}

// MembershipRequired asks the user to join the broadcast channel.
func MembershipRequired(lang domain.Language, channel string) string {
	if lang == domain.LanguagePersian {
		return fmt.Sprintf("برای استفاده از ربات ابتدا در کانال %s عضو شوید.", channel)
	}
	return fmt.Sprintf("Please join channel %s to use this bot.", channel)
}

// MembershipCheckFailed is shown when the membership lookup itself errors.
func MembershipCheckFailed(lang domain.Language) string {
	if lang == domain.LanguagePersian {
		return "خطا در بررسی عضویت. بعدا دوباره تلاش کنید."
	}
	return "Error verifying membership. Try again later."
}

// Support lists the admin contacts from the system configuration.
func Support(lang domain.Language, admins []string) string {
	list := strings.Join(admins, "\n")
	if lang == domain.LanguagePersian {
		return "راه‌های ارتباط با پشتیبانی:\n" + list
	}
	return "Support contacts:\n" + list
}

func escapeName(name string) string {
	escaped, err := format.EscapeMarkdown(name, format.MarkdownV1, "")
	if err != nil {
		return name
	}
	return escaped
}
