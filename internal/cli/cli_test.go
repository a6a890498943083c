package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"amciuday/internal/auth"
	"amciuday/internal/seed"
)

func execCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestNormalizeArgs(t *testing.T) {
	stdout, _, err := execCLI(t, "", "normalize", "Pomidory", "ząbek czosnku", "bazylia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Pomidory\tpomidor\nząbek czosnku\tczosnek\nbazylia\tbazylia\n"
	if stdout != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", stdout, want)
	}
}

func TestNormalizeStdin(t *testing.T) {
	stdout, _, err := execCLI(t, "JAJKA\n\nmleka\n", "normalize")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "JAJKA\tjajko\n\t\nmleka\tmleko\n"
	if stdout != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", stdout, want)
	}
}

func TestNormalizeCustomTable(t *testing.T) {
	table := writeFile(t, "table.json", `{"synonyms":{"koper":["koperek","kopru"]}}`)
	stdout, _, err := execCLI(t, "", "normalize", "--table", table, "Koperek", "Pomidory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Koperek\tkoper\nPomidory\tpomidor\n"
	if stdout != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", stdout, want)
	}
}

func TestTableCheckEmbedded(t *testing.T) {
	stdout, _, err := execCLI(t, "", "table", "check", "--strict")
	if err != nil {
		t.Fatalf("embedded table should pass strict check: %v", err)
	}
	for _, want := range []string{"table: (embedded)", "entries: ", "fingerprint: "} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "warning:") {
		t.Fatalf("embedded table should have no warnings:\n%s", stdout)
	}
}

func TestTableCheckWarnings(t *testing.T) {
	table := writeFile(t, "table.json", `{"synonyms":{"Ser":["sery"],"twaróg":["sery"]}}`)

	stdout, _, err := execCLI(t, "", "table", "check", "--table", table)
	if err != nil {
		t.Fatalf("warnings alone should not fail: %v", err)
	}
	if strings.Count(stdout, "warning:") != 2 {
		t.Fatalf("expected two warnings:\n%s", stdout)
	}

	if _, _, err := execCLI(t, "", "table", "check", "--table", table, "--strict"); err == nil {
		t.Fatalf("expected --strict to fail on warnings")
	}
}

func TestTableCheckParseError(t *testing.T) {
	table := writeFile(t, "table.json", `{"synonyms":[]}`)
	if _, _, err := execCLI(t, "", "table", "check", "--table", table); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, _, err := execCLI(t, "", "table", "check", "--table", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDatabaseCommandsRequireURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	seedFile := writeFile(t, "seed.json", `[]`)

	for _, args := range [][]string{{"renormalize"}, {"seed", seedFile}} {
		_, _, err := execCLI(t, "", args...)
		if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
			t.Fatalf("%v: expected missing database error, got %v", args, err)
		}
	}
}

func TestSeedRejectsBadFile(t *testing.T) {
	seedFile := writeFile(t, "seed.json", `{"items":[]}`)
	if _, _, err := execCLI(t, "", "seed", seedFile, "--database-url", "postgres://unused"); err == nil {
		t.Fatalf("expected error for a seed file without recipes")
	}
}

func TestToken(t *testing.T) {
	stdout, stderr, err := execCLI(t, "", "token", "--secret", "s3cret", "--subject", "ops", "--ttl", "10m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	admin, err := auth.ParseAdminToken("s3cret", strings.TrimSpace(stdout))
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if admin.Subject != "ops" {
		t.Fatalf("unexpected subject %q", admin.Subject)
	}
	if !strings.Contains(stderr, "expires: ") {
		t.Fatalf("expected expiry on stderr, got %q", stderr)
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")
	if _, _, err := execCLI(t, "", "token"); err == nil {
		t.Fatalf("expected error without a secret")
	}
}

func TestScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/zupa", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Zupa pomidorowa</title></head><body>
			<ul><li itemprop="recipeIngredient">1 l bulionu</li><li itemprop="recipeIngredient">pomidory</li></ul>
		</body></html>`))
	})
	mux.HandleFunc("/salatka", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Sałatka</title></head><body>
			<div class="ingredients"><ul><li>ogórek</li></ul></div></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	stdout, stderr, err := execCLI(t, "", "scrape", "--meal", "dinner", "--tag", "zupy",
		srv.URL+"/zupa", srv.URL+"/missing", srv.URL+"/salatka")
	if err != nil {
		t.Fatalf("unexpected error: %v (stderr %s)", err, stderr)
	}
	if !strings.Contains(stderr, "scrape_failed") {
		t.Fatalf("expected failure for /missing on stderr, got %q", stderr)
	}

	recipes, err := seed.Decode(strings.NewReader(stdout))
	if err != nil {
		t.Fatalf("output is not seed JSON: %v\n%s", err, stdout)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].Title != "Zupa pomidorowa" || recipes[1].Title != "Sałatka" {
		t.Fatalf("recipes out of argument order: %q, %q", recipes[0].Title, recipes[1].Title)
	}
	for _, r := range recipes {
		if r.MealType != "dinner" || len(r.Tags) != 1 || r.Tags[0] != "zupy" {
			t.Fatalf("unexpected recipe %+v", r)
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("scraped recipe should be importable: %v", err)
		}
	}
}

func TestScrapeRejectsBadMeal(t *testing.T) {
	if _, _, err := execCLI(t, "", "scrape", "--meal", "brunch", "https://example.com"); err == nil {
		t.Fatalf("expected error for invalid meal")
	}
}
