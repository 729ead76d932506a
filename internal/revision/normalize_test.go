package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html>\n<body>hi</body>\n</html>"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean text untouched", doc, doc},
		{"plain fences stripped", "```\n" + doc + "\n```", doc},
		{"language fence stripped", "```html\n" + doc + "\n```", doc},
		{"surrounding whitespace trimmed", "  \n" + doc + "\n\n", doc},
		{"fences plus whitespace", "\n```html\n" + doc + "\n```\n\n", doc},
		{"leading fence only", "```html\n" + doc, doc},
		{"trailing fence only", doc + "\n```", doc},
		{"inline backticks preserved", "use `code` here", "use `code` here"},
		{"trailing fence glued to last line", "```html\n" + doc + "```", doc},
		{"glued trailing fence only", doc + "```", doc},
		{"longer backtick run is not a fence", doc + "`````", doc + "`````"},
		{"fence without newline is not a fence", "```<html></html>", "```<html></html>"},
		{"empty input", "", ""},
		{"bare fence pair", "```\n```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<!DOCTYPE html><html><body>x</body></html>",
		"```html\n<html><body>x</body></html>\n```",
		"```\nsome text\n```",
		"  padded  ",
		"```",
		"<html><body>x</body></html>```",
		"```html\n<html><body>x</body></html>```",
		"x```\n```",
		"a``````",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestValidateDocument(t *testing.T) {
	valid := `<!DOCTYPE html>
<html>
<head><title>ok</title></head>
<body><h1>A perfectly reasonable generated application</h1></body>
</html>`
	require.NoError(t, ValidateDocument(valid))

	cases := []struct {
		name string
		in   string
	}{
		{"fragment", "<div>nope</div>"},
		{"truncated", "<html><body><h1>cut off mid"},
		{"placeholder comments", `<html><body><script>// ...existing code...</script></body></html>` + valid},
		{"too short", "<html><body></body></html>"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateDocument(tt.in))
		})
	}
}
