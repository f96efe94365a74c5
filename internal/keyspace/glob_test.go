package keyspace

import "testing"

func TestMatchWildcards(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"h[ae]llo", "hello", true},
		{"h[ae]llo", "hillo", false},
		{"h[^ae]llo", "hillo", true},
		{"h[a-c]llo", "hbllo", true},
		{"h[a-c]llo", "hzllo", false},
		{"foo*bar", "foobazbar", true},
		{"foo*bar", "foobaz", false},
		{`\*literal`, "*literal", true},
		{"abc", "abc", true},
		{"abc", "abd", false},
	}
	for _, c := range cases {
		if got := Match(c.pattern, c.s); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}
