package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"13800138000":      "+8613800138000",
		" 13800138000 ":    "+8613800138000",
		"+86 138 0013 8000": "+8613800138000",
		"":                 "",
		"not-a-number":     "not-a-number",
		"123":              "123",
	}
	for input, want := range cases {
		if got := NormalizeE164(input); got != want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", input, got, want)
		}
	}
}
