package genclient

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// extractJSON pulls the JSON object out of a raw model reply. Replies are
// frequently wrapped in markdown fences or surrounded by prose, so after
// dropping fences the text is sliced from the first '{' to the last '}'.
// No braces means there is nothing parseable.
func extractJSON(raw string) ([]byte, error) {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		// drop a language hint such as "json"
		if idx := strings.IndexByte(t, '\n'); idx != -1 {
			t = t[idx+1:]
		}
		if j := strings.LastIndex(t, "```"); j != -1 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	start := strings.IndexByte(t, '{')
	end := strings.LastIndexByte(t, '}')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in %.80q", ErrMalformedResponse, raw)
	}
	return []byte(t[start : end+1]), nil
}

// plainText prepares narration for speech synthesis: markdown emphasis
// markers and any stray HTML are removed so the voice does not read
// asterisks aloud.
func plainText(s string) string {
	return compactWhitespace(stripHTML(stripMarkdown(s)))
}

var markdownReplacer = strings.NewReplacer(
	"**", "",
	"__", "",
	"*", "",
	"_", "",
	"`", "",
	"#", "",
)

func stripMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}

func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	extractText(node, &b, false)
	return b.String()
}

func extractText(n *html.Node, b *strings.Builder, inHidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			inHidden = true
		case "br", "p", "div", "li", "tr":
			b.WriteString("\n")
		}
	}
	if !inHidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, b, inHidden)
	}
}

func compactWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	lines := strings.Split(s, "\n")
	var out []string
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
