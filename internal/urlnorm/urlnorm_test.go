package urlnorm

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		expected string
	}{
		{"strip_utm", "https://kwestiasmaku.com/przepis/owsianka?utm_source=fb&x=1", "https://kwestiasmaku.com/przepis/owsianka?x=1"},
		{"strip_fbclid", "https://kwestiasmaku.com/przepis/owsianka?fbclid=abc", "https://kwestiasmaku.com/przepis/owsianka"},
		{"strip_gclid_and_ref", "https://kwestiasmaku.com/przepis/owsianka?gclid=abc&ref=home", "https://kwestiasmaku.com/przepis/owsianka"},
		{"sort_query", "https://centrumrespo.pl/przepis?b=2&a=1", "https://centrumrespo.pl/przepis?a=1&b=2"},
		{"trim_trailing_slash", "https://centrumrespo.pl/przepis/pierogi-ruskie/", "https://centrumrespo.pl/przepis/pierogi-ruskie"},
		{"keep_root_slash", "https://centrumrespo.pl/", "https://centrumrespo.pl/"},
		{"add_root_slash", "https://centrumrespo.pl", "https://centrumrespo.pl/"},
		{"lower_host_and_scheme", "HTTPS://CentrumRespo.PL/Przepis", "https://centrumrespo.pl/Przepis"},
		{"drop_fragment", "https://kwestiasmaku.com/przepis/gulasz#skladniki", "https://kwestiasmaku.com/przepis/gulasz"},
		{"drop_default_port", "https://kwestiasmaku.com:443/przepis/gulasz", "https://kwestiasmaku.com/przepis/gulasz"},
		{"keep_custom_port", "http://localhost:8080/przepis", "http://localhost:8080/przepis"},
		{"strip_ga", "https://kwestiasmaku.com/przepis/gulasz?_ga=1.2&porcje=4", "https://kwestiasmaku.com/przepis/gulasz?porcje=4"},
		{"trim_space", "  https://kwestiasmaku.com/przepis/gulasz  ", "https://kwestiasmaku.com/przepis/gulasz"},
	}

	for _, tc := range cases {
		got, hash, err := Canonicalize(tc.raw)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.expected {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.expected)
		}
		if len(hash) != 64 {
			t.Fatalf("%s: unexpected hash %q", tc.name, hash)
		}
	}
}

func TestCanonicalizeSameRecipeSameHash(t *testing.T) {
	_, a, err := Canonicalize("https://www.example.com/przepis/a?utm_medium=x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, b, err := Canonicalize("https://WWW.example.com/przepis/a/#top")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal hashes")
	}
}

func TestCanonicalizeRejectsRelative(t *testing.T) {
	for _, raw := range []string{"/przepis/a", "ftp://example.com/a", "przepis"} {
		if _, _, err := Canonicalize(raw); err != ErrNotAbsolute {
			t.Fatalf("%q: expected ErrNotAbsolute, got %v", raw, err)
		}
	}
}

func TestHost(t *testing.T) {
	if got := Host("https://www.KwestiaSmaku.com/przepis"); got != "kwestiasmaku.com" {
		t.Fatalf("unexpected host %q", got)
	}
	if got := Host("::bad"); got != "" {
		t.Fatalf("expected empty host, got %q", got)
	}
}
