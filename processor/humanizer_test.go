package processor

import (
	"strings"
	"testing"

	"inkforge/content"
)

func TestHumanizerContractionsEnglishOnly(t *testing.T) {
	h := NewHumanizer()
	text := "We do not like this. It is fine either way."

	res, err := h.Apply(text, content.Request{Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "don't") || !strings.Contains(res.Text, "It's") {
		t.Fatalf("contractions not applied: %q", res.Text)
	}

	res, err = h.Apply(text, content.Request{Language: "zh"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Text, "don't") {
		t.Fatalf("contractions applied to non-English text: %q", res.Text)
	}
}

func TestReplaceWordWholeWordsOnly(t *testing.T) {
	got := replaceWord("a connotation cannot survive", "cannot", "can't")
	if got != "a connotation can't survive" {
		t.Fatalf("replaceWord = %q", got)
	}
}

func TestHumanizerReplacesFormalTransitions(t *testing.T) {
	h := NewHumanizer()
	res, err := h.Apply("However, the results were mixed overall.", content.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Text, "However") {
		t.Fatalf("formal transition survived: %q", res.Text)
	}
}

func TestHumanizerExperienceMarkerOnce(t *testing.T) {
	h := NewHumanizer()
	long := strings.Repeat("This sentence pads a mid-article paragraph out past the length gate. ", 3)
	text := "Intro paragraph.\n\n" + long + "\n\n" + long

	first, err := h.Apply(text, content.Request{})
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, m := range NewHumanizer().markers {
		count += strings.Count(first.Text, m)
	}
	if count != 1 {
		t.Fatalf("expected exactly one experience marker, found %d:\n%s", count, first.Text)
	}

	second, err := h.Apply(first.Text, content.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if second.Text != first.Text {
		t.Fatalf("humanizer is not idempotent:\nfirst:  %q\nsecond: %q", first.Text, second.Text)
	}
}

func TestHumanizerSkipsHeadings(t *testing.T) {
	h := NewHumanizer()
	long := "## " + strings.Repeat("A heading paragraph should never receive an experience marker at all. ", 3)
	res, err := h.Apply("Intro.\n\n"+long, content.Request{})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range h.markers {
		if strings.Contains(res.Text, m) {
			t.Fatalf("marker added to heading paragraph: %q", res.Text)
		}
	}
}
