package ranking

import (
	"slices"
	"testing"
)

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
	if got := Tokenize("   \t\n"); len(got) != 0 {
		t.Errorf("expected no tokens for whitespace, got %v", got)
	}
}

func TestTokenize_Lowercase(t *testing.T) {
	got := Tokenize("BATTERY Pack")
	if !slices.Contains(got, "battery") || !slices.Contains(got, "pack") {
		t.Errorf("expected lowercase tokens, got %v", got)
	}
	if slices.Contains(got, "BATTERY") {
		t.Errorf("uppercase token leaked: %v", got)
	}
}

func TestTokenize_Korean(t *testing.T) {
	got := Tokenize("현대 아이오닉5 배터리 팩")
	want := []string{"현대", "아이오닉5", "배터리", "팩"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_StandaloneStopWords(t *testing.T) {
	got := Tokenize("배터리 의 상태 는 좋습니다")
	if slices.Contains(got, "의") || slices.Contains(got, "는") {
		t.Errorf("standalone stop words not removed: %v", got)
	}
	if !slices.Contains(got, "배터리") || !slices.Contains(got, "상태") {
		t.Errorf("content words missing: %v", got)
	}
}

func TestTokenize_GluedParticleKept(t *testing.T) {
	// Known limitation: particles attached to a word stay.
	got := Tokenize("배터리의 상태")
	if !slices.Contains(got, "배터리의") {
		t.Errorf("expected glued particle to survive, got %v", got)
	}
}

func TestTokenize_Punctuation(t *testing.T) {
	got := Tokenize("배터리, 모터; 인버터! (SOH 92%)")
	want := []string{"배터리", "모터", "인버터", "soh", "92"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_PunctuationIsRemovedNotSplit(t *testing.T) {
	got := Tokenize("NCM-811")
	if !slices.Equal(got, []string{"ncm811"}) {
		t.Errorf("expected joined token, got %v", got)
	}
}

func TestTokenize_OnlyStopWords(t *testing.T) {
	if got := Tokenize("의 는 the"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}
