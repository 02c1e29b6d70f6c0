package moderation

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"level_checkin_bot/internal/domain"
)

type fakeCollection struct {
	findOneDoc interface{}
	findOneErr error
	findDocs   []interface{}
	findErr    error

	updateFilter interface{}
	updateDoc    interface{}
	updateErr    error

	deleteFilter interface{}
	deleteErr    error
}

func (f *fakeCollection) FindOne(_ context.Context, _ interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(f.findOneDoc, f.findOneErr, nil)
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.updateFilter = filter
	f.updateDoc = update
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (f *fakeCollection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.deleteFilter = filter
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeCollection) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return mongo.NewCursorFromDocuments(f.findDocs, nil, nil)
}

func TestWarningsAddPushesEntry(t *testing.T) {
	coll := &fakeCollection{findOneDoc: bson.M{}}
	warnings := NewWarnings(coll, nil)
	warnings.clock = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	warning, err := warnings.Add(context.Background(), "42", "alice", "spamming", "99")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	if warning.ID == "" {
		t.Fatalf("expected warning to carry an ID")
	}
	if warning.Reason != "spamming" || warning.AdminID != "99" {
		t.Fatalf("unexpected warning: %+v", warning)
	}

	update, ok := coll.updateDoc.(bson.M)
	if !ok {
		t.Fatalf("expected bson.M update, got %T", coll.updateDoc)
	}
	push, ok := update["$push"].(bson.M)
	if !ok {
		t.Fatalf("expected $push in update (append-only log), got %v", update)
	}
	if _, ok := push["warnings"]; !ok {
		t.Fatalf("expected push into warnings array, got %v", push)
	}
}

func TestWarningsAddRequiresReason(t *testing.T) {
	warnings := NewWarnings(&fakeCollection{findOneDoc: bson.M{}}, nil)

	if _, err := warnings.Add(context.Background(), "42", "alice", "", "99"); err == nil {
		t.Fatalf("expected empty reason to be rejected")
	}
}

func TestWarningsListMissingLogIsEmpty(t *testing.T) {
	coll := &fakeCollection{findOneDoc: bson.M{}, findOneErr: mongo.ErrNoDocuments}
	warnings := NewWarnings(coll, nil)

	list, err := warnings.List(context.Background(), "42")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list for missing log, got %v", list)
	}
}

func TestWarningsListReturnsInsertionOrder(t *testing.T) {
	log := domain.WarningLog{
		UserID:   "42",
		Username: "alice",
		Warnings: []domain.Warning{
			{ID: "a", Reason: "first"},
			{ID: "b", Reason: "second"},
		},
	}
	warnings := NewWarnings(&fakeCollection{findOneDoc: log}, nil)

	list, err := warnings.List(context.Background(), "42")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 || list[0].Reason != "first" || list[1].Reason != "second" {
		t.Fatalf("expected warnings in insertion order, got %v", list)
	}
}

func TestWarningsClearDeletesWholeLog(t *testing.T) {
	coll := &fakeCollection{findOneDoc: bson.M{}}
	warnings := NewWarnings(coll, nil)

	if err := warnings.Clear(context.Background(), "42"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	filter, ok := coll.deleteFilter.(bson.M)
	if !ok || filter["user_id"] != "42" {
		t.Fatalf("expected delete by user_id, got %v", coll.deleteFilter)
	}
}

func TestOverridesSetAndGet(t *testing.T) {
	coll := &fakeCollection{findOneDoc: bson.M{}}
	overrides := NewOverrides(coll, nil)
	overrides.clock = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	override, err := overrides.Set(context.Background(), "42", "alice", 9000, "legacy import", "99")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if override.Level != 9000 {
		t.Fatalf("expected level 9000, got %d", override.Level)
	}

	stored := NewOverrides(&fakeCollection{findOneDoc: override}, nil)
	got, found, err := stored.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found || got.Level != 9000 {
		t.Fatalf("expected stored override, got found=%v %+v", found, got)
	}
}

func TestOverridesSetRejectsNegativeLevel(t *testing.T) {
	overrides := NewOverrides(&fakeCollection{findOneDoc: bson.M{}}, nil)

	if _, err := overrides.Set(context.Background(), "42", "alice", -1, "", "99"); err == nil {
		t.Fatalf("expected negative override to be rejected")
	}
}

func TestOverridesGetMissingIsNotFound(t *testing.T) {
	overrides := NewOverrides(&fakeCollection{findOneDoc: bson.M{}, findOneErr: mongo.ErrNoDocuments}, nil)

	_, found, err := overrides.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Fatalf("expected no override for missing document")
	}
}

func TestOverridesAllKeysByUser(t *testing.T) {
	coll := &fakeCollection{findDocs: []interface{}{
		domain.Override{UserID: "1", Level: 100},
		domain.Override{UserID: "2", Level: 200},
	}}
	overrides := NewOverrides(coll, nil)

	all, err := overrides.All(context.Background())
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(all) != 2 || all["2"].Level != 200 {
		t.Fatalf("unexpected overrides map: %v", all)
	}
}

func TestOverridesClear(t *testing.T) {
	coll := &fakeCollection{findOneDoc: bson.M{}}
	overrides := NewOverrides(coll, nil)

	if err := overrides.Clear(context.Background(), "42"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	filter, ok := coll.deleteFilter.(bson.M)
	if !ok || filter["user_id"] != "42" {
		t.Fatalf("expected delete by user_id, got %v", coll.deleteFilter)
	}
}
