package checkout

import (
	"fmt"
	"html"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
)

var (
	markdownEscaper = strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)
	markdownV2Escaper = strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
)

// markup is the per parse mode way of emphasising and escaping text.
type markup struct {
	bold   func(string) string
	escape func(string) string
}

func markupFor(mode enums.ParseMode) markup {
	switch mode {
	case enums.ParseModeMarkdownV2:
		return markup{
			bold:   func(s string) string { return "*" + markdownV2Escaper.Replace(s) + "*" },
			escape: markdownV2Escaper.Replace,
		}
	case enums.ParseModeHTML:
		return markup{
			bold:   func(s string) string { return "<b>" + html.EscapeString(s) + "</b>" },
			escape: html.EscapeString,
		}
	default:
		return markup{
			bold:   func(s string) string { return "*" + s + "*" },
			escape: markdownEscaper.Replace,
		}
	}
}

// FormatMessage renders the draft as an order message for the given chat
// parse mode. Every user and catalog supplied value is escaped for that
// mode. Unknown modes fall back to legacy Markdown. Amounts are shown with
// two decimals.
func FormatMessage(draft OrderDraft, mode enums.ParseMode) string {
	m := markupFor(mode)
	var b strings.Builder

	b.WriteString(m.bold("New order") + "\n\n")
	fmt.Fprintf(&b, "%s %s\n", m.bold("Name:"), m.escape(draft.CustomerName))
	fmt.Fprintf(&b, "%s %s\n", m.bold("Phone:"), m.escape(draft.CustomerPhone))
	fmt.Fprintf(&b, "%s %s\n", m.bold("Address:"), m.escape(draft.CustomerAddress))
	if draft.Notes != "" {
		fmt.Fprintf(&b, "%s %s\n", m.bold("Notes:"), m.escape(draft.Notes))
	}

	b.WriteString("\n" + m.bold("Items:") + "\n")
	for _, line := range draft.Items {
		fmt.Fprintf(&b, "%s %s x%d: %s\n",
			m.escape("-"), m.escape(line.Name), line.Quantity, m.escape(line.Subtotal().StringFixed(2)))
	}

	fmt.Fprintf(&b, "\n%s %s", m.bold("Total:"), m.escape(draft.Total.StringFixed(2)))
	return b.String()
}
