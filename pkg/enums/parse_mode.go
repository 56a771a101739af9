package enums

import "fmt"

// ParseMode selects how the chat client renders message text.
type ParseMode string

const (
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeHTML       ParseMode = "HTML"
)

var validParseModes = []ParseMode{
	ParseModeMarkdown,
	ParseModeMarkdownV2,
	ParseModeHTML,
}

func (p ParseMode) String() string {
	return string(p)
}

func (p ParseMode) IsValid() bool {
	for _, candidate := range validParseModes {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParseParseMode(value string) (ParseMode, error) {
	for _, candidate := range validParseModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid parse mode %q", value)
}
