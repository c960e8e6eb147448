package notion

import "strings"

// Annotations are the independent styling flags on a rich text run. They are
// kept as separate booleans so a decoded run re-encodes without loss.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Mention struct {
	Type string `json:"type"`
}

type Equation struct {
	Expression string `json:"expression"`
}

// RichTextRun is one styled segment of text. Type discriminates the linked
// content: "text" carries Text, "mention" carries Mention, "equation" carries
// Equation. PlainText is always populated by the remote service.
type RichTextRun struct {
	Type        string       `json:"type"`
	PlainText   string       `json:"plain_text"`
	Href        *string      `json:"href,omitempty"`
	Annotations Annotations  `json:"annotations"`
	Text        *TextContent `json:"text,omitempty"`
	Mention     *Mention     `json:"mention,omitempty"`
	Equation    *Equation    `json:"equation,omitempty"`
}

// PlainText concatenates the plain text of every run in order.
func PlainText(runs []RichTextRun) string {
	if len(runs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.PlainText)
	}
	return b.String()
}
