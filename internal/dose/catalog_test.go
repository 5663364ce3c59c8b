package dose

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCatalogMatch_CaseSensitiveSubstring(t *testing.T) {
	c := Catalog{Names: []string{"NSAIDs", "Macrolides", "กระเทียม"}}
	if got := c.Match("ใช้ NSAIDs กับ กระเทียม"); !reflect.DeepEqual(got, []string{"NSAIDs", "กระเทียม"}) {
		t.Fatalf("unexpected match: %v", got)
	}
	if got := c.Match("nsaids"); len(got) != 0 {
		t.Fatalf("match must be case-sensitive, got %v", got)
	}
	if got := c.Match(""); got != nil {
		t.Fatalf("empty text matched %v", got)
	}
}

func TestLoadCatalogs(t *testing.T) {
	def, err := LoadCatalogs("")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if !def.Supplements.Has("กระเทียม") || !def.Interactions.Has("NSAIDs") {
		t.Fatalf("defaults missing entries: %+v", def)
	}

	p := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(p, []byte("supplements: [\" ginseng \"]\ninteractions: [aspirin]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadCatalogs(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(c.Supplements.Names, []string{"ginseng"}) || !c.Interactions.Has("aspirin") {
		t.Fatalf("unexpected catalogs: %+v", c)
	}

	if err := os.WriteFile(p, []byte("supplements: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalogs(p); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
}

func TestParseNumber(t *testing.T) {
	if v, err := ParseNumber(" 2.7 "); err != nil || v != 2.7 {
		t.Fatalf("got %v, %v", v, err)
	}
	for _, bad := range []string{"abc", "", "2,7", "NaN", "inf"} {
		_, err := ParseNumber(bad)
		var ie *InvalidInputError
		if !errors.As(err, &ie) || ie.Kind != NotANumber || !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: want NotANumber, got %v", bad, err)
		}
	}
	_, err := ParsePositive("-3")
	var ie *InvalidInputError
	if !errors.As(err, &ie) || ie.Kind != OutOfRange {
		t.Fatalf("want OutOfRange, got %v", err)
	}
}

func TestIsNone(t *testing.T) {
	for _, s := range []string{"", "  ", "ไม่ได้ใช้", " ไม่ได้ใช้ "} {
		if !IsNone(s) {
			t.Fatalf("%q should mean none", s)
		}
	}
	for _, s := range []string{"กระเทียม", "ไม่มี", "-", "none", "no"} {
		if IsNone(s) {
			t.Fatalf("%q typed as free text must be checked, not treated as none", s)
		}
	}
}
