package knowledgebase

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/eecar/partsearch/internal/domain/part"
)

// vocabulary gives each keyword its own axis, so similarity is keyword overlap.
var vocabulary = []string{"배터리", "모터", "인버터", "충전기", "현대", "기아"}

func keywordEmbed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(text, w))
	}
	v[len(vocabulary)] = 0.01
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v, nil
}

func newTestKB(t *testing.T) *KnowledgeBase {
	t.Helper()
	kb, err := New(Options{}, keywordEmbed, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return kb
}

func sampleParts() []part.Part {
	return []part.Part{
		{ID: "p1", Name: "아이오닉5 배터리 팩", Category: part.CategoryBattery, Manufacturer: "현대"},
		{ID: "p2", Name: "EV6 구동 모터", Category: part.CategoryMotor, Manufacturer: "기아"},
		{ID: "p3", Name: "코나 배터리 모듈", Category: part.CategoryBattery, Manufacturer: "현대"},
		{ID: "p4", Name: "니로 인버터", Category: part.CategoryInverter, Manufacturer: "기아"},
	}
}
