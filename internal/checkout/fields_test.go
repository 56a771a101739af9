package checkout

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func TestValidateListsEveryMissingField(t *testing.T) {
	err := Validate(Fields{CustomerName: "  ", CustomerPhone: "\t", CustomerAddress: ""})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"customer_name", "customer_phone", "customer_address"}
	if strings.Join(vErr.Fields, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected fields %v", vErr.Fields)
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error in chain")
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["customer_phone"] != "is required" {
		t.Fatalf("unexpected details %v", typed.Details())
	}
}

func TestValidateAcceptsAnyNonBlankValues(t *testing.T) {
	if err := Validate(Fields{CustomerName: "x", CustomerPhone: "not-a-number", CustomerAddress: "?"}); err != nil {
		t.Fatalf("presence-only validation rejected input: %v", err)
	}
}

func orderDraft() OrderDraft {
	return OrderDraft{
		Items: []cart.Line{
			{ItemID: "A", Name: "Burger", UnitPrice: decimal.RequireFromString("5"), Quantity: 2},
			{ItemID: "B", Name: "Fries_large", UnitPrice: decimal.RequireFromString("2.5"), Quantity: 1},
		},
		CustomerName:    "Ada *Lovelace*",
		CustomerPhone:   "555",
		CustomerAddress: "12 Way",
		Notes:           "ring twice",
		Total:           decimal.RequireFromString("12.5"),
		SubmittedAt:     time.Now(),
	}
}

func TestFormatMessage(t *testing.T) {
	draft := orderDraft()

	msg := FormatMessage(draft, enums.ParseModeMarkdown)
	for _, want := range []string{
		"*New order*",
		"*Name:* Ada \\*Lovelace\\*",
		"*Phone:* 555",
		"*Address:* 12 Way",
		"*Notes:* ring twice",
		"- Burger x2: 10.00",
		"- Fries\\_large x1: 2.50",
		"*Total:* 12.50",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if msg != FormatMessage(draft, "") {
		t.Fatalf("empty parse mode should render legacy Markdown")
	}

	draft.Notes = ""
	if strings.Contains(FormatMessage(draft, enums.ParseModeMarkdown), "*Notes:*") {
		t.Fatalf("empty notes should be omitted")
	}
}

func TestFormatMessageMarkdownV2EscapesReservedCharacters(t *testing.T) {
	draft := orderDraft()
	draft.CustomerName = "Ann (VIP)!"
	draft.CustomerPhone = "+1-555"
	draft.CustomerAddress = "1 Main St. #4"
	draft.Notes = `a_b [c] ~d~ > e = f | {g} \ h`

	msg := FormatMessage(draft, enums.ParseModeMarkdownV2)
	for _, want := range []string{
		"*New order*",
		"*Name:* Ann \\(VIP\\)\\!",
		"*Phone:* \\+1\\-555",
		"*Address:* 1 Main St\\. \\#4",
		"*Notes:* a\\_b \\[c\\] \\~d\\~ \\> e \\= f \\| \\{g\\} \\\\ h",
		"\\- Burger x2: 10\\.00",
		"\\- Fries\\_large x1: 2\\.50",
		"*Total:* 12\\.50",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	for _, line := range strings.Split(msg, "\n") {
		for i := 0; i < len(line); i++ {
			if line[i] == '\\' {
				i++
				continue
			}
			if strings.IndexByte(".-!()+#", line[i]) >= 0 {
				t.Fatalf("unescaped %q in line %q", line[i], line)
			}
		}
	}
}

func TestFormatMessageHTMLEscapesMarkup(t *testing.T) {
	draft := orderDraft()
	draft.CustomerName = "Tom & <Jerry>"
	draft.Items[0].Name = "Mac <b>Cheese</b>"

	msg := FormatMessage(draft, enums.ParseModeHTML)
	for _, want := range []string{
		"<b>New order</b>",
		"<b>Name:</b> Tom &amp; &lt;Jerry&gt;",
		"<b>Notes:</b> ring twice",
		"- Mac &lt;b&gt;Cheese&lt;/b&gt; x2: 10.00",
		"- Fries_large x1: 2.50",
		"<b>Total:</b> 12.50",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "*") {
		t.Fatalf("HTML message must not carry Markdown markers:\n%s", msg)
	}
}
