package domain

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Language is the interface language chosen by an account holder.
// An empty value means the user has not completed language selection yet.
type Language string

const (
	LanguageUnset   Language = ""
	LanguageEnglish Language = "english"
	LanguagePersian Language = "persian"
)

// ParseLanguage maps free-form input (callback payloads) to a known
// language. Unknown input yields LanguageUnset and false.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageEnglish:
		return LanguageEnglish, true
	case LanguagePersian:
		return LanguagePersian, true
	}
	return LanguageUnset, false
}

// Method identifies a supported payout rail.
type Method string

const (
	MethodBinance Method = "binance"
	MethodTRX     Method = "trx"
	MethodTON     Method = "ton"
)

// Methods lists the supported payout methods in display order.
var Methods = []Method{MethodBinance, MethodTRX, MethodTON}

// ParseMethod maps callback payloads to a known payout method.
func ParseMethod(s string) (Method, bool) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodBinance:
		return MethodBinance, true
	case MethodTRX:
		return MethodTRX, true
	case MethodTON:
		return MethodTON, true
	}
	return "", false
}

// Label returns the user-facing method name.
func (m Method) Label() string {
	switch m {
	case MethodBinance:
		return "Binance"
	case MethodTRX:
		return "TRX"
	case MethodTON:
		return "TON"
	}
	return strings.ToUpper(string(m))
}

// Account is a single user record. Identity is the Telegram user id and
// is immutable after creation. Address fields hold either an empty
// string or a trimmed non-empty address.
type Account struct {
	ID             int64           `db:"telegram_id"`
	Name           string          `db:"name"`
	Balance        decimal.Decimal `db:"balance"`
	Language       Language        `db:"language"`
	AddressBinance string          `db:"address_binance"`
	AddressTRX     string          `db:"address_trx"`
	AddressTON     string          `db:"address_ton"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Address returns the stored payout address for the method, empty when
// the user has not supplied one.
func (a *Account) Address(m Method) string {
	switch m {
	case MethodBinance:
		return a.AddressBinance
	case MethodTRX:
		return a.AddressTRX
	case MethodTON:
		return a.AddressTON
	}
	return ""
}

// SetAddress updates the in-memory address field for the method.
func (a *Account) SetAddress(m Method, addr string) {
	switch m {
	case MethodBinance:
		a.AddressBinance = addr
	case MethodTRX:
		a.AddressTRX = addr
	case MethodTON:
		a.AddressTON = addr
	}
}

// SystemConfig is the singleton operational record: the broadcast channel
// used for membership checks and the ordered admin contact list.
type SystemConfig struct {
	Channel string         `db:"channel"`
	Admins  pq.StringArray `db:"admins"`
}

// WithdrawalRequest is a recorded withdrawal. Settlement happens outside
// this service; the balance is never mutated here.
type WithdrawalRequest struct {
	ID        string          `db:"id"`
	AccountID int64           `db:"telegram_id"`
	Method    Method          `db:"method"`
	Address   string          `db:"address"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
}
