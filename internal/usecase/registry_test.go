package usecase

import (
	"context"
	"testing"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/testutil"
)

func TestRegistry(t *testing.T) {
	o, _ := newTestOrchestrator(&testutil.Client{}, testutil.NewStore(), fastOptions())
	reg := NewRegistry()

	var runs []*Run
	for i := 0; i < 3; i++ {
		r, err := o.NewRun(context.Background(), models.Request{Symbols: []string{"A"}, Interval: models.Interval1d})
		if err != nil {
			t.Fatal(err)
		}
		reg.Add(r)
		runs = append(runs, r)
	}

	if got, ok := reg.Get(runs[1].ID); !ok || got != runs[1] {
		t.Fatalf("Get(%s) = %v, %v", runs[1].ID, got, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("Get(missing) found a run")
	}

	list := reg.List()
	if len(list) != 3 {
		t.Fatalf("List = %d runs, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].RunID > list[i].RunID {
			t.Fatalf("List not ordered by id")
		}
	}

	if !reg.Stop(runs[0].ID) || !runs[0].StopRequested() {
		t.Fatal("Stop did not flag the run")
	}
	if reg.Stop("missing") {
		t.Fatal("Stop(missing) = true")
	}

	reg.StopAll()
	for _, r := range runs {
		if !r.StopRequested() {
			t.Errorf("run %s not stopped by StopAll", r.ID)
		}
	}

	reg.Remove(runs[2].ID)
	if _, ok := reg.Get(runs[2].ID); ok {
		t.Fatal("run still present after Remove")
	}
}
