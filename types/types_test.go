package types

import "testing"

func sbWith(scripts ...string) *Storyboard {
	sb := &Storyboard{}
	for _, s := range scripts {
		sb.Segments = append(sb.Segments, StoryboardSegment{Script: s})
	}
	return sb
}

func TestNarrationScriptSkipsPoster(t *testing.T) {
	sb := sbWith("POSTER TEXT", "Welcome back.", "Here is the verdict.")
	got := sb.NarrationScript()
	want := "Welcome back. ... [pause] ... Here is the verdict. ... [pause] ... "
	if got != want {
		t.Fatalf("NarrationScript = %q, want %q", got, want)
	}
}

func TestNarrationScriptEmptyStoryboard(t *testing.T) {
	if got := sbWith().NarrationScript(); got != "" {
		t.Fatalf("empty storyboard script = %q", got)
	}
	// A poster-only storyboard has nothing to speak either.
	if got := sbWith("POSTER").NarrationScript(); got != "" {
		t.Fatalf("poster-only script = %q", got)
	}
}

func TestSlideCount(t *testing.T) {
	if got := sbWith().SlideCount(); got != 0 {
		t.Errorf("empty SlideCount = %d", got)
	}
	if got := sbWith("poster").SlideCount(); got != 0 {
		t.Errorf("poster-only SlideCount = %d", got)
	}
	if got := sbWith("poster", "a", "b", "c").SlideCount(); got != 3 {
		t.Errorf("SlideCount = %d, want 3", got)
	}
}
