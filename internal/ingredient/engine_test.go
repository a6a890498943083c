package ingredient

import (
	"strings"
	"sync"
	"testing"
)

func engineFor(entries ...Entry) *Engine {
	return NewEngine(NewTable(entries))
}

func TestNormalizeSynonyms(t *testing.T) {
	e := engineFor(
		Entry{Base: "pomidor", Synonyms: []string{"pomidory", "pomidorki"}},
		Entry{Base: "czosnek", Synonyms: []string{"ząbek czosnku", "ząbki czosnku"}},
		Entry{Base: "żurawina", Synonyms: []string{"żurawiny", "żurawin"}},
	)
	cases := []struct {
		input    string
		expected string
	}{
		{"Pomidorki ", "pomidor"},
		{"pomidory", "pomidor"},
		{"POMIDOR", "pomidor"},
		{"\t pomidory \n", "pomidor"},
		{"Ząbek Czosnku", "czosnek"},
		{"ŻURAWINY", "żurawina"},
		{"cebule", "cebule"},
		{"śledzio", "śledzio"},
	}
	for _, tc := range cases {
		if got := e.Normalize(tc.input); got != tc.expected {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeSynonymsBeforeSuffixRules(t *testing.T) {
	e := engineFor(Entry{Base: "ser", Synonyms: []string{"sery", "sera", "serów"}})
	for _, in := range []string{"sery", "sera", "serów", "Ser"} {
		if got := e.Normalize(in); got != "ser" {
			t.Fatalf("Normalize(%q) = %q, want ser", in, got)
		}
	}
}

func TestNormalizeSuffixRules(t *testing.T) {
	e := engineFor()
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"y_rule", "pomidory", "pomidor"},
		{"y_rule_kapusty", "kapusty", "kapust"},
		{"y_rule_accented", "bakłażany", "bakłażan"},
		{"y_too_short", "ty", "ty"},
		{"i_rule", "pierogi", "pierog"},
		{"i_rule_no_sense", "kiwi", "kiw"},
		{"i_rule_kabaczki", "kabaczki", "kabaczk"},
		{"i_too_short", "wi", "wi"},
		{"ow_rule", "jajeków", "jajek"},
		{"ow_rule_jogurt", "jogurtów", "jogurt"},
		{"ow_rule_uppercase", "CHLEBÓW", "chleb"},
		{"ow_too_short", "tów", "tów"},
		{"ow_alone", "ów", "ów"},
		{"no_rule", "cebule", "cebule"},
		{"no_rule_ogonek", "cukinię", "cukinię"},
		{"punctuation_kept", "mix-ingredient", "mix-ingredient"},
		{"digits_kept", "składnik123", "składnik123"},
		{"underscore_kept", "nieznany_składnik", "nieznany_składnik"},
		{"single_rune", "i", "i"},
	}
	for _, tc := range cases {
		if got := e.Normalize(tc.input); got != tc.expected {
			t.Fatalf("%s: Normalize(%q) = %q, want %q", tc.name, tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeLengthBoundaries(t *testing.T) {
	e := engineFor()
	cases := []struct {
		input    string
		expected string
	}{
		{"ay", "ay"},
		{"aay", "aa"},
		{"ai", "ai"},
		{"aai", "aa"},
		{"aów", "aów"},
		{"aaów", "aa"},
	}
	for _, tc := range cases {
		if got := e.Normalize(tc.input); got != tc.expected {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeAppliesOneRule(t *testing.T) {
	e := engineFor()
	// "kiwiy" loses the y; the i exposed by that is left alone.
	if got := e.Normalize("kiwiy"); got != "kiwi" {
		t.Fatalf("Normalize(kiwiy) = %q, want kiwi", got)
	}
	// "-yów" only strips the genitive ending.
	if got := e.Normalize("testyów"); got != "testy" {
		t.Fatalf("Normalize(testyów) = %q, want testy", got)
	}
	if got := e.Normalize("testy"); got != "test" {
		t.Fatalf("Normalize(testy) = %q, want test", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	e := engineFor(Entry{Base: "pomidor", Synonyms: []string{"pomidory"}})
	for _, in := range []string{"", " ", "   ", "\t\n"} {
		if got := e.Normalize(in); got != "" {
			t.Fatalf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestNormalizeDecomposedInput(t *testing.T) {
	e := engineFor()
	decomposed := "jogurto\u0301w"
	if got := e.Normalize(decomposed); got != "jogurt" {
		t.Fatalf("Normalize(decomposed) = %q, want jogurt", got)
	}
}

func TestNormalizeCaseAndWhitespaceInsensitive(t *testing.T) {
	e, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	samples := []string{
		"pomidorki", "ząbki czosnku", "żurawiny", "kiwi", "jogurtów",
		"mix-ingredient", "Łosoś", "ŚMIETANA", "ser biały", "100g mąki",
	}
	for _, s := range samples {
		want := e.Normalize(s)
		if got := e.Normalize("  " + strings.ToUpper(s) + "  "); got != want {
			t.Fatalf("Normalize(upper %q) = %q, want %q", s, got, want)
		}
	}
}

func TestDefaultTableClosure(t *testing.T) {
	e, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if w := e.Table().Warnings(); len(w) != 0 {
		t.Fatalf("bundled table has warnings: %v", w)
	}
	if e.Table().Len() == 0 {
		t.Fatalf("bundled table is empty")
	}
	for _, entry := range e.Table().Entries() {
		if got := e.Normalize(entry.Base); got != entry.Base {
			t.Fatalf("base %q normalizes to %q", entry.Base, got)
		}
		for _, syn := range entry.Synonyms {
			if got := e.Normalize(syn); got != entry.Base {
				t.Fatalf("synonym %q normalizes to %q, want %q", syn, got, entry.Base)
			}
		}
	}
}

func TestNormalizeFirstEntryWins(t *testing.T) {
	e := engineFor(
		Entry{Base: "papryka", Synonyms: []string{"papryki", "kapsaicyna"}},
		Entry{Base: "chili", Synonyms: []string{"kapsaicyna", "papryczki"}},
	)
	if got := e.Normalize("kapsaicyna"); got != "papryka" {
		t.Fatalf("duplicate synonym resolved to %q, want papryka", got)
	}
	if got := e.Normalize("papryczki"); got != "chili" {
		t.Fatalf("Normalize(papryczki) = %q, want chili", got)
	}
}

func TestNormalizeShadowedBase(t *testing.T) {
	e := engineFor(
		Entry{Base: "ser", Synonyms: []string{"feta"}},
		Entry{Base: "feta", Synonyms: []string{"fety"}},
	)
	if got := e.Normalize("feta"); got != "ser" {
		t.Fatalf("Normalize(feta) = %q, want ser", got)
	}
	if got := e.Normalize("fety"); got != "feta" {
		t.Fatalf("Normalize(fety) = %q, want feta", got)
	}
}

func TestNormalizeConcurrent(t *testing.T) {
	e, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	inputs := []string{"Pomidorki ", "ZĄBEK CZOSNKU", "kabaczki", "jajeków", "  "}
	want := make([]string, len(inputs))
	for i, in := range inputs {
		want[i] = e.Normalize(in)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16*len(inputs))
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, in := range inputs {
				if got := e.Normalize(in); got != want[i] {
					errs <- in
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for in := range errs {
		t.Fatalf("concurrent Normalize(%q) differed", in)
	}
}

func TestFold(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"  ŻÓŁW  ", "żółw"},
		{"ĄĘĆŁŃÓŚŹŻ", "ąęćłńóśźż"},
		{"Mąka Pszenna", "mąka pszenna"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Fold(tc.input); got != tc.expected {
			t.Fatalf("Fold(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
