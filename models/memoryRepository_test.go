package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lendfocus/mortgage_backend/utils"
)

func TestMemoryRepository_UpsertAssignsIds(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := &Person{FirstName: "Ana"}
	second := &Person{FirstName: "Ben"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if first.ID == 0 || second.ID == 0 || first.ID == second.ID {
		t.Fatalf("Upsert expected distinct assigned ids, got %d and %d", first.ID, second.ID)
	}

	got, err := repo.Get(ctx, EntityTypePerson, first.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.(*Person).FirstName != "Ana" {
		t.Fatalf("Get expected Ana, got %s", got.(*Person).FirstName)
	}
}

func TestMemoryRepository_TraverseDirections(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	person := &Person{FirstName: "Ana"}
	app := &Application{ApplicationNumber: "APP-2024-000001"}
	if err := repo.Upsert(ctx, person); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := repo.Upsert(ctx, app); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := repo.Link(ctx, person, RelationshipAppliesFor, app, map[string]interface{}{"is_primary": true}); err != nil {
		t.Fatalf("Link error: %v", err)
	}

	outgoing, err := repo.Traverse(ctx, person, RelationshipAppliesFor, DirectionOutgoing)
	if err != nil {
		t.Fatalf("Traverse outgoing error: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].EntityID() != app.ID {
		t.Fatalf("Traverse outgoing expected the application, got %v", outgoing)
	}

	incoming, err := repo.Traverse(ctx, app, RelationshipAppliesFor, DirectionIncoming)
	if err != nil {
		t.Fatalf("Traverse incoming error: %v", err)
	}
	if len(incoming) != 1 || incoming[0].EntityID() != person.ID {
		t.Fatalf("Traverse incoming expected the person, got %v", incoming)
	}

	properties, ok := repo.LinkProperties(person, RelationshipAppliesFor, app)
	if !ok || properties["is_primary"] != true {
		t.Fatalf("LinkProperties expected is_primary=true, got %v (found=%v)", properties, ok)
	}
}

func TestMemoryRepository_ScanWindow(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	recent := &Application{ApplicationDate: now.AddDate(0, 0, -10)}
	old := &Application{ApplicationDate: now.AddDate(-1, 0, 0)}
	for _, app := range []*Application{recent, old} {
		if err := repo.Upsert(ctx, app); err != nil {
			t.Fatalf("Upsert error: %v", err)
		}
	}

	results, err := repo.Scan(ctx, EntityTypeApplication, nil, ScanWindow{From: now.AddDate(0, 0, -30), To: now})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(results) != 1 || results[0].EntityID() != recent.ID {
		t.Fatalf("Scan expected only the recent application, got %d results", len(results))
	}
}

func TestMemoryRepository_ScanResultCap(t *testing.T) {
	t.Setenv("SCAN_RESULT_LIMIT", "10")
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 11; i++ {
		person := &Person{FirstName: "Resident"}
		person.CreatedAt = now
		if err := repo.Upsert(ctx, person); err != nil {
			t.Fatalf("Upsert error: %v", err)
		}
	}

	// no predicate narrows the cap: window-matching rows are what count
	_, err := repo.Scan(ctx, EntityTypePerson, func(Entity) bool { return false },
		ScanWindow{From: now.AddDate(0, 0, -1), To: now})
	if !errors.Is(err, utils.ErrorScanResultCap) {
		t.Fatalf("Scan over %d rows expected ErrorScanResultCap, got %v", 11, err)
	}
}

func TestMemoryRepository_ScanUnderCap(t *testing.T) {
	t.Setenv("SCAN_RESULT_LIMIT", "10")
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		person := &Person{FirstName: "Resident"}
		person.CreatedAt = now
		if err := repo.Upsert(ctx, person); err != nil {
			t.Fatalf("Upsert error: %v", err)
		}
	}

	results, err := repo.Scan(ctx, EntityTypePerson, nil, ScanWindow{From: now.AddDate(0, 0, -1), To: now})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("Scan expected 10 results, got %d", len(results))
	}
}

func TestMemoryRepository_ScanHonorsContext(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	if err := repo.Upsert(ctx, &Application{}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	cancel()

	_, err := repo.Scan(ctx, EntityTypeApplication, nil, ScanWindow{})
	if !errors.Is(err, utils.ErrorScanTimeout) {
		t.Fatalf("Scan with cancelled context expected ErrorScanTimeout, got %v", err)
	}
}
