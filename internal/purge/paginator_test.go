package purge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mastogone/internal/model"
)

func TestPaginatorWalksHistoryNewestFirst(t *testing.T) {
	history := make([]model.Status, 0, 90)
	for i := 0; i < 90; i++ {
		history = append(history, model.Status{
			ID:        fmt.Sprintf("id%03d", i),
			CreatedAt: testNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	fc := &fakeClient{statuses: history}
	pg := NewPaginator(fc, "me", 40)
	ctx := context.Background()

	var seen []string
	for {
		page, err := pg.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if page == nil {
			break
		}
		for _, st := range page {
			seen = append(seen, st.ID)
		}
	}
	if len(seen) != 90 {
		t.Fatalf("saw %d statuses, want 90", len(seen))
	}
	if pg.Pages() != 3 {
		t.Fatalf("pages = %d, want 3 (40+40+10)", pg.Pages())
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("order broken at %d: %s then %s", i, seen[i-1], seen[i])
		}
	}
	// Exhausted paginator stays exhausted.
	if page, err := pg.Next(ctx); page != nil || err != nil {
		t.Fatalf("exhausted Next = %v, %v", page, err)
	}
}

func TestPaginatorStopsOnError(t *testing.T) {
	history := make([]model.Status, 0, 50)
	for i := 0; i < 50; i++ {
		history = append(history, model.Status{ID: fmt.Sprintf("id%02d", i), CreatedAt: testNow})
	}
	fc := &fakeClient{statuses: history, pageErr: errors.New("malformed page")}
	pg := NewPaginator(fc, "me", 40)
	ctx := context.Background()

	page, err := pg.Next(ctx)
	if err != nil || len(page) != 40 {
		t.Fatalf("first page: %d statuses, err %v", len(page), err)
	}
	if _, err := pg.Next(ctx); err == nil {
		t.Fatal("expected error on second page")
	}
	// The error is terminal.
	if page, err := pg.Next(ctx); page != nil || err != nil {
		t.Fatalf("after error Next = %v, %v", page, err)
	}
	if pg.Pages() != 1 {
		t.Fatalf("pages = %d, want 1", pg.Pages())
	}
}
