package security

import "testing"

func TestSanitizeText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Brass desk lamp", "Brass desk lamp"},
		{"アポストロフィは保持される", "Wes's Moving Sale!!", "Wes's Moving Sale!!"},
		{"アンパサンドはエスケープされない", "Tables & Chairs", "Tables & Chairs"},
		{"タグは除去され中身は残る", "<b>Lamp</b>", "Lamp"},
		{"scriptタグは中身ごと除去される", "<script>alert(1)</script>Chair", "Chair"},
		{"イベント属性を持つタグも除去される", `<img src=x onerror="alert(1)">Rug`, "Rug"},
		{"前後の空白を除去する", "  Bookshelf  ", "Bookshelf"},
		{"タグだけの入力は空になる", "<p></p>", ""},
		{"空文字列は空文字列", "", ""},
		{"日本語テキストはそのまま", "ランプ（真鍮）", "ランプ（真鍮）"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	input := "<em>Vintage</em> radio & speakers"
	first := sanitizer.SanitizeText(input)
	second := sanitizer.SanitizeText(first)
	if first != second {
		t.Errorf("not idempotent: %q then %q", first, second)
	}
}

func TestTextSanitizer_ImplementsInterface(t *testing.T) {
	var _ TextSanitizer = NewTextSanitizer()
}
