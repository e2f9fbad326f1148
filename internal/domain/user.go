package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User es el registro de identidad y estado de seguridad de un usuario.
type User struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	Email              string                  `json:"email"`
	PasswordHash       string                  `json:"-"`
	PlaidAccessToken   string                  `json:"-"`
	PlaidItemID        string                  `json:"-"`
	Budgets            []Budget                `json:"budgets"`
	Preferences        NotificationPreferences `json:"notificationPreferences"`
	TwoFactorSecret    *TwoFactorSecret        `json:"-"`
	IsTwoFactorEnabled bool                    `json:"isTwoFactorEnabled"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

// Budget es un techo de gasto por categoria. La categoria es unica dentro del usuario.
type Budget struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
}

type NotificationPreferences struct {
	SendBillAlerts   bool `json:"sendBillAlerts"`
	SendBudgetAlerts bool `json:"sendBudgetAlerts"`
}

// DefaultNotificationPreferences activa ambos avisos.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{SendBillAlerts: true, SendBudgetAlerts: true}
}

// TwoFactorSecret guarda el secreto TOTP y su URI de aprovisionamiento.
type TwoFactorSecret struct {
	Base32     string `json:"base32"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// HasLinkedBank indica si el usuario completo el intercambio con el agregador.
func (u User) HasLinkedBank() bool {
	return u.PlaidAccessToken != ""
}

// SetBudget reemplaza el limite si la categoria ya existe o agrega una entrada nueva al final.
func (u *User) SetBudget(category string, limit decimal.Decimal) {
	for i := range u.Budgets {
		if u.Budgets[i].Category == category {
			u.Budgets[i].Limit = limit
			return
		}
	}
	u.Budgets = append(u.Budgets, Budget{Category: category, Limit: limit})
}

// Profile es la vista publica del usuario que devuelven los endpoints de auth.
type Profile struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	Email              string                  `json:"email"`
	Token              string                  `json:"token,omitempty"`
	Preferences        NotificationPreferences `json:"notificationPreferences"`
	IsTwoFactorEnabled bool                    `json:"isTwoFactorEnabled"`
}

func (u User) Profile(token string) Profile {
	return Profile{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Token:              token,
		Preferences:        u.Preferences,
		IsTwoFactorEnabled: u.IsTwoFactorEnabled,
	}
}
