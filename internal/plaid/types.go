package plaid

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type credentialed interface {
	setCredentials(clientID, secret string)
}

type credentials struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

func (c *credentials) setCredentials(clientID, secret string) {
	c.ClientID = clientID
	c.Secret = secret
}

type linkUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateRequest struct {
	credentials
	ClientName   string   `json:"client_name"`
	User         linkUser `json:"user"`
	Products     []string `json:"products"`
	CountryCodes []string `json:"country_codes"`
	Language     string   `json:"language"`
}

type LinkToken struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

type publicTokenExchangeRequest struct {
	credentials
	PublicToken string `json:"public_token"`
}

// ItemAccess es el par de credenciales que se guarda en el usuario.
type ItemAccess struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type accessTokenRequest struct {
	credentials
	AccessToken string `json:"access_token"`
}

type transactionsSyncRequest struct {
	credentials
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
}

type transactionsSyncResponse struct {
	Added      []Transaction `json:"added"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

// Transaction sigue la convencion de Plaid: monto positivo = salida de dinero.
type Transaction struct {
	TransactionID string                   `json:"transaction_id"`
	AccountID     string                   `json:"account_id"`
	Name          string                   `json:"name"`
	MerchantName  string                   `json:"merchant_name,omitempty"`
	Amount        decimal.Decimal          `json:"amount"`
	Date          string                   `json:"date"`
	Category      *PersonalFinanceCategory `json:"personal_finance_category,omitempty"`
}

type PersonalFinanceCategory struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// PrimaryCategory devuelve la categoria primaria o vacio si Plaid no la envio.
func (t Transaction) PrimaryCategory() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Primary
}

func (t Transaction) validate() error {
	if t.TransactionID == "" {
		return fmt.Errorf("%w: transaction without id", ErrBadResponse)
	}
	if len(t.Date) != len("2006-01-02") {
		return fmt.Errorf("%w: transaction %s has bad date %q", ErrBadResponse, t.TransactionID, t.Date)
	}
	return nil
}

type accountsGetResponse struct {
	Accounts []Account `json:"accounts"`
}

type Account struct {
	AccountID string   `json:"account_id"`
	Name      string   `json:"name"`
	Mask      string   `json:"mask,omitempty"`
	Type      string   `json:"type"`
	Subtype   string   `json:"subtype,omitempty"`
	Balances  Balances `json:"balances"`
}

type Balances struct {
	Available       *decimal.Decimal `json:"available"`
	Current         *decimal.Decimal `json:"current"`
	ISOCurrencyCode string           `json:"iso_currency_code,omitempty"`
}

// IsLiability indica si el saldo resta del patrimonio neto.
func (a Account) IsLiability() bool {
	return a.Type == "credit" || a.Type == "loan"
}
