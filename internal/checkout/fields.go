package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
)

const (
	fieldCustomerName    = "customer_name"
	fieldCustomerPhone   = "customer_phone"
	fieldCustomerAddress = "customer_address"
	fieldCart            = "cart"
)

// Fields are the customer details collected by the checkout form.
type Fields struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	Notes           string `json:"notes,omitempty"`
}

func (f Fields) normalized() Fields {
	return Fields{
		CustomerName:    strings.TrimSpace(f.CustomerName),
		CustomerPhone:   strings.TrimSpace(f.CustomerPhone),
		CustomerAddress: strings.TrimSpace(f.CustomerAddress),
		Notes:           strings.TrimSpace(f.Notes),
	}
}

// OrderDraft is the order as it was sent. It lives only for one submission.
type OrderDraft struct {
	Items           []cart.Line     `json:"items"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	Notes           string          `json:"notes,omitempty"`
	Total           decimal.Decimal `json:"total"`
	SubmittedAt     time.Time       `json:"submitted_at"`
}

// Outcome is returned for an acknowledged submission.
type Outcome struct {
	Draft     OrderDraft `json:"order"`
	MessageID int64      `json:"message_id"`
}

// Validate checks presence only; phone and address formats are not checked.
func Validate(fields Fields) error {
	f := fields.normalized()
	var missing []string
	if f.CustomerName == "" {
		missing = append(missing, fieldCustomerName)
	}
	if f.CustomerPhone == "" {
		missing = append(missing, fieldCustomerPhone)
	}
	if f.CustomerAddress == "" {
		missing = append(missing, fieldCustomerAddress)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
