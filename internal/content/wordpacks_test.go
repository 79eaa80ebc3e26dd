package content

import "testing"

func TestPacksCoverBothLanguages(t *testing.T) {
	for _, lang := range []string{"es", "en"} {
		packs := Packs(lang)
		if len(packs) == 0 {
			t.Fatalf("no packs for %s", lang)
		}
		for _, p := range packs {
			for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
				if len(p.Words[d]) == 0 {
					t.Fatalf("pack %s/%s has no %s words", lang, p.ID, d)
				}
			}
		}
	}
}

func TestPacksUnknownLanguageFallsBack(t *testing.T) {
	if got := Packs("fr"); len(got) != len(Packs("es")) {
		t.Fatalf("unknown language should fall back to es")
	}
}

func TestRandomWordComesFromPack(t *testing.T) {
	packs := Packs("es")
	pack := packs[0]

	for i := 0; i < 20; i++ {
		word, ok := RandomWord("es", pack.ID, DifficultyMedium)
		if !ok {
			t.Fatalf("draw failed")
		}
		found := false
		for _, w := range pack.Words[DifficultyMedium] {
			if w == word {
				found = true
			}
		}
		if !found {
			t.Fatalf("word %q not in pack %s", word, pack.ID)
		}
	}
}

func TestRandomWordUnknownPack(t *testing.T) {
	if _, ok := RandomWord("es", "quarks", DifficultyEasy); ok {
		t.Fatalf("unknown pack should not draw")
	}
}

func TestValidAvatar(t *testing.T) {
	if !ValidAvatar(Avatars[0]) {
		t.Fatalf("known avatar rejected")
	}
	if ValidAvatar("🥔") {
		t.Fatalf("unknown avatar accepted")
	}
	if len(Avatars) != len(Colors) {
		t.Fatalf("avatar/color sets out of step: %d vs %d", len(Avatars), len(Colors))
	}
}
