package style

import "testing"

func TestPromptKnownStyles(t *testing.T) {
	for _, s := range All() {
		if got := Prompt(s.ID); got != s.Prompt {
			t.Fatalf("Prompt(%s) = %q, want %q", s.ID, got, s.Prompt)
		}
		if Prompt(s.ID) == Generic {
			t.Fatalf("style %s fell back to generic prompt", s.ID)
		}
	}
}

func TestPromptUnknownFallsBack(t *testing.T) {
	if got := Prompt("neon_noir"); got != Generic {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]ID{
		"bright_modern":           BrightModern,
		"Bright/Modern":           BrightModern,
		"  rustic/dark ":          RusticDark,
		"Social Media (Top-Down)": SocialMedia,
	}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Fatalf("Parse(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := Parse("vaporwave"); ok {
		t.Fatal("expected unknown style to be rejected")
	}
}

func TestAllIsACopy(t *testing.T) {
	all := All()
	if len(all) != 3 {
		t.Fatalf("expected 3 styles, got %d", len(all))
	}
	all[0].Prompt = "mutated"
	if Prompt(all[0].ID) == "mutated" {
		t.Fatal("All must not expose the catalog")
	}
}
