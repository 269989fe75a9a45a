package invoice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice. Stored as free-form text;
// consumers upper/title case it for display.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// LineItem is one billable entry within an invoice.
type LineItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Items is an ordered line item sequence. Callers supply it either as a JSON
// array or as a JSON-encoded string of that array; both decode transparently
// and marshal back in canonical array form.
type Items []LineItem

// UnmarshalJSON accepts a literal array or a string-wrapped encoding.
func (it *Items) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*it = nil
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if strings.TrimSpace(encoded) == "" {
			*it = nil
			return nil
		}
		data = []byte(encoded)
	}

	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*it = items
	return nil
}

// EncodeJSON returns the canonical JSON array encoding of the items.
func (it Items) EncodeJSON() (string, error) {
	if it == nil {
		it = Items{}
	}
	payload, err := json.Marshal([]LineItem(it))
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// Invoice is the canonical record of a billable transaction. It is read-only
// input for the duration of one export or render call.
type Invoice struct {
	InvoiceNumber string `json:"invoiceNumber"`

	ClientName   string `json:"clientName"`
	ClientEmail  string `json:"clientEmail,omitempty"`
	ClientPhone  string `json:"clientPhone,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`

	CompanyName    string `json:"companyName,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
	CompanyPhone   string `json:"companyPhone,omitempty"`
	CompanyEmail   string `json:"companyEmail,omitempty"`
	CompanyWebsite string `json:"companyWebsite,omitempty"`

	InvoiceDate string `json:"invoiceDate,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	VAT      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`

	Deposit      decimal.Decimal `json:"depositAmount,omitempty"`
	PaymentTerms string          `json:"paymentTerms,omitempty"`

	Items  Items  `json:"items"`
	Status Status `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// VATAmount derives the tax amount from the rate and subtotal. The amount is
// never stored on the invoice.
func (inv Invoice) VATAmount() decimal.Decimal {
	if inv.VAT.IsZero() {
		return decimal.Zero
	}
	return inv.VAT.Div(decimal.NewFromInt(100)).Mul(inv.Subtotal)
}

// DecodeInvoices parses a JSON array of invoices.
func DecodeInvoices(data []byte) ([]Invoice, error) {
	var invoices []Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		return nil, NewError(KindData, "invalid invoice payload", err)
	}
	return invoices, nil
}

// ParseDate parses an ISO-8601 timestamp, normalizing a trailing UTC "Z"
// marker to an explicit offset. Bare dates are accepted as well.
func ParseDate(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if strings.HasSuffix(raw, "Z") {
		raw = strings.TrimSuffix(raw, "Z") + "+00:00"
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func (inv Invoice) dateField(field, value string) (time.Time, error) {
	parsed, err := ParseDate(value)
	if err != nil {
		return time.Time{}, NewError(KindData,
			fmt.Sprintf("invoice %s: invalid %s", inv.InvoiceNumber, field), err)
	}
	return parsed, nil
}

// invoiceDates resolves both invoice dates up front so a malformed date skips
// the invoice before any of its rows are emitted.
func (inv Invoice) invoiceDates() (issued, due time.Time, err error) {
	issued, err = inv.dateField("invoiceDate", inv.InvoiceDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	due, err = inv.dateField("dueDate", inv.DueDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return issued, due, nil
}

// TitleCase renders a status word for display ("overdue" -> "Overdue").
func TitleCase(value string) string {
	words := strings.Fields(strings.ToLower(value))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
