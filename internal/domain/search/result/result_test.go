package result

import (
	"testing"

	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/filter"
)

func sample() []Result {
	return []Result{
		{PartID: "p1", Score: 0.9, Part: part.Projection{Category: part.CategoryBattery, Price: 100}},
		{PartID: "p2", Score: 0.8, Part: part.Projection{Category: part.CategoryMotor, Price: 50}},
		{PartID: "p3", Score: 0.7, Part: part.Projection{Category: part.CategoryBattery, Price: 300}},
		{PartID: "p4", Score: 0.6, Part: part.Projection{Category: part.CategoryBattery, Price: 80}},
	}
}

func TestView_FilterKeepsOrder(t *testing.T) {
	f, _ := filter.New("battery", "", nil, nil)
	got := View(sample(), f, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, want := range []string{"p1", "p3", "p4"} {
		if got[i].PartID != want {
			t.Errorf("[%d] = %s, want %s", i, got[i].PartID, want)
		}
	}
}

func TestView_TopKAfterFilter(t *testing.T) {
	maxPrice := 100.0
	f, _ := filter.New("", "", &maxPrice, nil)
	got := View(sample(), f, 2)
	if len(got) != 2 || got[0].PartID != "p1" || got[1].PartID != "p2" {
		t.Errorf("unexpected view: %+v", got)
	}
}

func TestView_DoesNotMutateInput(t *testing.T) {
	in := sample()
	f, _ := filter.New("motor", "", nil, nil)
	_ = View(in, f, 1)
	if len(in) != 4 || in[0].PartID != "p1" {
		t.Error("input slice was modified")
	}
}

func TestNewResponse_CountAndNonNil(t *testing.T) {
	resp := NewResponse(nil, []string{"배터리"}, true)
	if resp.Results == nil {
		t.Error("results must be non-nil for JSON encoding")
	}
	if resp.Count != 0 || !resp.Cached {
		t.Errorf("unexpected response: %+v", resp)
	}
}
