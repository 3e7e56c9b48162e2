// Package prompt renders the generation prompt from a query and its selected products.
package prompt

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopper/internal/domain/product"
)

// Separator prefixes every rendered candidate.
const Separator = "\n* "

// ClosingCue ends the prompt; generation starts right after it.
const ClosingCue = "\n\nAI:"

const (
	introduction = "The following is a conversation between a personal shopper for a luxury brand " +
		"in ecommerce named AI and a Human. The AI is helpful, creative, clever, and very friendly. " +
		"The AI only recommends a product when it genuinely matches the Human's preferences " +
		"and never claims a match that the listed products do not support."

	labelsHeader = "\n\nThe Human presents a picture that represents their preferences. " +
		"The image contains the following labels:\n"

	queryHeader = "\n\nHuman: "

	productsHeader = "\n\nThe AI searches and comes back with the following products:"

	instruction = "\n\nThe AI now recommends the best product to the Human from the list only if the product " +
		"matches the Human's preferences. The AI tries to convince the Human that the product matches " +
		"their preferences by describing the product in terms of these preferences."
)

// Assemble renders a single prompt string.
// The labels section is omitted when labels is empty. The query and record content are
// interpolated verbatim, without escaping: injection through them is a known trust boundary.
func Assemble(query string, labels []string, candidates []product.Product) string {
	products := RenderCandidates(candidates)

	var b strings.Builder
	b.Grow(len(introduction) + len(labelsHeader) + len(query) + len(products) + len(instruction) + 64)

	b.WriteString(introduction)

	if len(labels) > 0 {
		b.WriteString(labelsHeader)
		b.WriteString(FormatLabels(labels))
	}

	b.WriteString(queryHeader)
	b.WriteString(query)

	b.WriteString(productsHeader)
	b.WriteString(products)

	b.WriteString(instruction)
	b.WriteString(ClosingCue)

	return b.String()
}

// RenderCandidates renders each candidate's content on a single line prefixed by Separator,
// in the given order. Newlines inside content become "; ". Candidates with empty content
// are skipped so the block never holds a bare separator; no candidates yields "".
func RenderCandidates(candidates []product.Product) string {
	var b strings.Builder
	for _, p := range candidates {
		content := p.Content()
		if content == "" {
			continue
		}
		b.WriteString(Separator)
		b.WriteString(strings.ReplaceAll(content, "\n", "; "))
	}
	return b.String()
}

// FormatLabels renders labels in their literal list form: ['shoe', 'footwear'].
func FormatLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = quoteLabel(l)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// quoteLabel single-quotes l, switching to double quotes when l holds a single
// quote but no double quote. Backslashes, the chosen quote and control characters are escaped.
func quoteLabel(l string) string {
	q := byte('\'')
	if strings.ContainsRune(l, '\'') && !strings.ContainsRune(l, '"') {
		q = '"'
	}

	var b strings.Builder
	b.Grow(len(l) + 2)
	b.WriteByte(q)
	for _, r := range l {
		switch {
		case r == '\\' || r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			b.WriteString(`\x`)
			b.WriteString(strconv.FormatInt(int64(r)|0x100, 16)[1:])
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
