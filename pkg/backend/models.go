package backend

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	RoleID    string     `json:"roleId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

type Business struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	OwnerID     string `json:"ownerId,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BusinessID string `json:"businessId"`
	Position   int    `json:"position,omitempty"`
}

type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	BusinessID  string          `json:"businessId"`
	Available   *bool           `json:"available,omitempty"`
}

// IsAvailable treats a missing flag as available.
func (i Item) IsAvailable() bool {
	return i.Available == nil || *i.Available
}

type Subscription struct {
	ID         string     `json:"id"`
	BusinessID string     `json:"businessId"`
	Plan       string     `json:"plan"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type Order struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"businessId"`
	Customer   string          `json:"customer,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status,omitempty"`
	CreatedAt  *time.Time      `json:"createdAt,omitempty"`
}

// TelegramContact binds a business to the chat its orders go to.
type TelegramContact struct {
	ID         string `json:"id"`
	BusinessID string `json:"businessId"`
	ChatID     int64  `json:"chatId"`
	Label      string `json:"label,omitempty"`
}
