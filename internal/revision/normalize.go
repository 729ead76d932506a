package revision

import (
	"fmt"
	"strings"
)

// Normalize cleans a generator response: surrounding whitespace is trimmed
// and at most one enclosing markdown fence layer is stripped, none if absent.
// A leading fence is recognized as a whole line ("```" plus an optional
// language tag); a trailing fence either on its own line or glued to the end
// of the last line. Stripping is refused when it would expose another fence,
// so normalizing already-clean text is a no-op.
func Normalize(text string) string {
	text = strings.TrimSpace(text)

	if rest, ok := stripLeadingFence(text); ok {
		text = strings.TrimSpace(rest)
	}
	if rest, ok := stripTrailingFence(text); ok {
		text = strings.TrimSpace(rest)
	}
	return text
}

func stripLeadingFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return s, false
	}
	rest := s[3:]
	i := 0
	for i < len(rest) && isLangChar(rest[i]) {
		i++
	}
	switch {
	case i == len(rest):
		return "", true
	case rest[i] == '\n':
		return rest[i+1:], true
	default:
		// backticks followed by document text on the same line; not a fence
		return s, false
	}
}

func stripTrailingFence(s string) (string, bool) {
	if s == "```" {
		return "", true
	}
	var rest string
	switch {
	case strings.HasSuffix(s, "\n```"):
		rest = s[:len(s)-4]
	case strings.HasSuffix(s, "```") && !strings.HasSuffix(s, "````"):
		// fence glued to the last line of the document
		rest = s[:len(s)-3]
	default:
		return s, false
	}
	if strings.HasSuffix(strings.TrimSpace(rest), "```") {
		// stripping would expose another fence layer
		return s, false
	}
	return rest, true
}

func isLangChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ValidateDocument rejects responses that are not a complete, self-contained
// HTML document, including truncated output that ends mid-file or replaces
// code with placeholder comments.
func ValidateDocument(code string) error {
	lower := strings.ToLower(code)

	if !strings.Contains(lower, "<html") {
		return fmt.Errorf("missing <html> tag")
	}
	if !strings.Contains(lower, "</html>") {
		return fmt.Errorf("missing </html> tag - response may be truncated")
	}
	if !strings.Contains(lower, "<body") {
		return fmt.Errorf("missing <body> tag")
	}
	if !strings.Contains(lower, "</body>") {
		return fmt.Errorf("missing </body> tag - response may be truncated")
	}

	if strings.Contains(lower, "...existing") || strings.Contains(lower, "// ...") || strings.Contains(lower, "/* ...") {
		return fmt.Errorf("response contains placeholder comments instead of actual code")
	}

	if len(code) < 100 {
		return fmt.Errorf("response too short - likely incomplete")
	}

	return nil
}
