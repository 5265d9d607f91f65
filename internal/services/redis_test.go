package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

func setupTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRedisService(mr.Addr(), logger), mr
}

func testPreset(name string) *preset.Preset {
	return &preset.Preset{
		Name: name,
		Fragments: []preset.Fragment{
			{Identifier: "main", Name: "Main", Content: "Hi"},
			{Identifier: "g1", Name: "指南", Content: "G1"},
		},
		OrderBlocks: []preset.OrderBlock{
			{CharacterID: preset.UserCharacterID, Order: []preset.OrderEntry{
				{Identifier: "main", Enabled: true},
			}},
		},
	}
}

func TestRedisService_PresetRoundTrip(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()

	if err := svc.SavePreset(ctx, testPreset("izumi")); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}

	loaded, err := svc.GetPreset(ctx, "izumi")
	if err != nil {
		t.Fatalf("GetPreset failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected preset, got nil")
	}
	if len(loaded.Fragments) != 2 {
		t.Errorf("Expected 2 fragments, got %d", len(loaded.Fragments))
	}
	if _, ok := preset.ExtractOrder(loaded.OrderBlocks); !ok {
		t.Error("Expected order metadata to survive the round trip")
	}
}

func TestRedisService_GetPreset_NotFound(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	p, err := svc.GetPreset(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Expected no error for missing preset, got %v", err)
	}
	if p != nil {
		t.Errorf("Expected nil for missing preset, got %v", p)
	}
}

func TestRedisService_SaveReplacesWholesale(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()

	if err := svc.SavePreset(ctx, testPreset("izumi")); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}

	replacement := &preset.Preset{
		Name:      "izumi",
		Fragments: []preset.Fragment{{Identifier: "only", Name: "Only", Content: "new"}},
	}
	if err := svc.SavePreset(ctx, replacement); err != nil {
		t.Fatalf("SavePreset (replace) failed: %v", err)
	}

	loaded, err := svc.GetPreset(ctx, "izumi")
	if err != nil {
		t.Fatalf("GetPreset failed: %v", err)
	}
	if len(loaded.Fragments) != 1 || loaded.Fragments[0].Identifier != "only" {
		t.Errorf("Expected wholesale replacement, got %v", loaded.Fragments)
	}
	if loaded.OrderBlocks != nil {
		t.Error("Expected old order metadata to be gone after replacement")
	}
}

func TestRedisService_ListAndDelete(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()

	for _, name := range []string{"alpha", "beta"} {
		if err := svc.SavePreset(ctx, testPreset(name)); err != nil {
			t.Fatalf("SavePreset(%s) failed: %v", name, err)
		}
	}

	names, err := svc.ListPresets(ctx)
	if err != nil {
		t.Fatalf("ListPresets failed: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Expected [alpha beta], got %v", names)
	}

	if err := svc.DeletePreset(ctx, "alpha"); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	names, err = svc.ListPresets(ctx)
	if err != nil {
		t.Fatalf("ListPresets failed: %v", err)
	}
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("Expected [beta] after delete, got %v", names)
	}
	if p, _ := svc.GetPreset(ctx, "alpha"); p != nil {
		t.Error("Expected deleted preset to be gone")
	}
}

func TestRedisService_ActiveStyle(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()

	style, err := svc.GetActiveStyle(ctx)
	if err != nil {
		t.Fatalf("GetActiveStyle failed: %v", err)
	}
	if style != nil {
		t.Errorf("Expected no active style initially, got %v", style)
	}

	want := &preset.ActiveStyle{PresetName: "izumi", Identifier: "styleX", Name: "文风：鲁迅"}
	if err := svc.SetActiveStyle(ctx, want); err != nil {
		t.Fatalf("SetActiveStyle failed: %v", err)
	}

	style, err = svc.GetActiveStyle(ctx)
	if err != nil {
		t.Fatalf("GetActiveStyle failed: %v", err)
	}
	if style == nil || style.Identifier != "styleX" || style.Name != "文风：鲁迅" {
		t.Errorf("Expected stored style back, got %v", style)
	}

	if err := svc.ClearActiveStyle(ctx); err != nil {
		t.Fatalf("ClearActiveStyle failed: %v", err)
	}
	style, err = svc.GetActiveStyle(ctx)
	if err != nil {
		t.Fatalf("GetActiveStyle failed: %v", err)
	}
	if style != nil {
		t.Errorf("Expected style cleared, got %v", style)
	}
}

func TestRedisService_History(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := history.Record{UserMessage: fmt.Sprintf("msg-%d", i), BotReply: "ok"}
		if err := svc.AppendHistory(ctx, "sess-1", rec); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}

	records, err := svc.RecentHistory(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	// Oldest first within the returned window.
	if records[0].UserMessage != "msg-2" || records[2].UserMessage != "msg-4" {
		t.Errorf("Expected [msg-2 .. msg-4], got %v", records)
	}

	// Unknown session yields no records, not an error.
	records, err = svc.RecentHistory(ctx, "unknown", 10)
	if err != nil {
		t.Fatalf("RecentHistory failed for unknown session: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %v", records)
	}
}

func TestRedisService_Ping(t *testing.T) {
	svc, mr := setupTestRedis(t)
	defer func() { _ = svc.Close() }()

	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed: %v", err)
	}

	mr.Close()
	if err := svc.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail after server shutdown")
	}
}
