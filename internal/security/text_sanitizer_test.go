package security

import "testing"

// TestSanitize_StripsAllTags は全HTMLタグが除去されることを検証する。
func TestSanitize_StripsAllTags(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "scriptタグが除去される",
			input: `Great customer<script>alert('xss')</script>`,
			want:  "Great customer",
		},
		{
			name:  "imgタグが除去される",
			input: `<img src="https://example.com/x.png">Prefers email contact`,
			want:  "Prefers email contact",
		},
		{
			name:  "整形タグも除去されテキストのみ残る",
			input: "<p>Bulk buyer. <strong>Net-30 terms.</strong></p>",
			want:  "Bulk buyer. Net-30 terms.",
		},
		{
			name:  "イベント属性付きタグが除去される",
			input: `<div onmouseover="steal()">VIP account</div>`,
			want:  "VIP account",
		},
		{
			name:  "平文はそのまま通過する",
			input: "Calls every Monday morning",
			want:  "Calls every Monday morning",
		},
		{
			name:  "空文字列は空文字列を返す",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力への再適用が出力を変えないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	input := `<b>Season ticket holder</b> since 2019`
	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)

	if once != twice {
		t.Errorf("Sanitize is not idempotent: %q != %q", once, twice)
	}
}

// TestSanitize_TrimsWhitespace は前後の空白がトリムされることを検証する。
func TestSanitize_TrimsWhitespace(t *testing.T) {
	sanitizer := NewTextSanitizer()

	if got := sanitizer.Sanitize("  spaced out  "); got != "spaced out" {
		t.Errorf("Sanitize() = %q, want %q", got, "spaced out")
	}
}
