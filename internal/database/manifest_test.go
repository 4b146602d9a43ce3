package database

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/webmirror/internal/model"
)

func testReport(seed string) *model.MirrorReport {
	report := model.NewMirrorReport(seed, "/tmp/out")
	report.Stats = model.StatsSnapshot{Total: 2, Downloaded: 1, Failed: 1}
	report.Elapsed = 1500 * time.Millisecond
	report.AddAsset(model.Asset{
		URL:         seed,
		LocalPath:   "/tmp/out/example.test/index.html",
		Kind:        model.KindPage,
		StatusCode:  200,
		ContentType: "text/html",
		Size:        128,
		SHA256:      "abc123",
		FetchedAt:   time.Now(),
	})
	report.AddAsset(model.Asset{
		URL:       seed + "broken",
		Kind:      model.KindPage,
		FetchedAt: time.Now(),
		Error:     "HTTP 500",
	})
	return report
}

// TestManifestDB tests session persistence round trips.
func TestManifestDB(t *testing.T) {
	t.Parallel()

	t.Run("save and load a session", func(t *testing.T) {
		t.Parallel()

		mdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		defer mdb.Close() //nolint:errcheck

		ctx := context.Background()
		id, err := mdb.SaveReport(ctx, testReport("http://example.test/"))
		if err != nil {
			t.Fatalf("save report: %v", err)
		}
		if id <= 0 {
			t.Fatalf("expected positive session ID, got %d", id)
		}

		report, err := mdb.GetSessionReport(ctx, id)
		if err != nil {
			t.Fatalf("get report: %v", err)
		}
		if report == nil {
			t.Fatal("expected stored report")
		}
		if report.Seed != "http://example.test/" {
			t.Errorf("seed mismatch: %s", report.Seed)
		}
		if report.Stats.Total != 2 || report.Stats.Downloaded != 1 || report.Stats.Failed != 1 {
			t.Errorf("stats mismatch: %+v", report.Stats)
		}

		assets, err := mdb.SessionAssets(ctx, id)
		if err != nil {
			t.Fatalf("session assets: %v", err)
		}
		if len(assets) != 2 {
			t.Fatalf("expected 2 assets, got %d", len(assets))
		}
		if assets[0].Kind != model.KindPage || assets[0].SHA256 != "abc123" {
			t.Errorf("first asset mismatch: %+v", assets[0])
		}
		if assets[1].Error != "HTTP 500" {
			t.Errorf("failed asset must keep its error: %+v", assets[1])
		}
	})

	t.Run("missing session returns nil", func(t *testing.T) {
		t.Parallel()

		mdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		defer mdb.Close() //nolint:errcheck

		report, err := mdb.GetSessionReport(context.Background(), 9999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report != nil {
			t.Errorf("expected nil for missing session, got %+v", report)
		}
	})

	t.Run("list sessions newest first", func(t *testing.T) {
		t.Parallel()

		mdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		defer mdb.Close() //nolint:errcheck

		ctx := context.Background()
		first := testReport("http://a.test/")
		first.StartedAt = time.Now().Add(-time.Hour)
		if _, err := mdb.SaveReport(ctx, first); err != nil {
			t.Fatalf("save first: %v", err)
		}
		if _, err := mdb.SaveReport(ctx, testReport("http://b.test/")); err != nil {
			t.Fatalf("save second: %v", err)
		}

		sessions, err := mdb.ListSessions(ctx)
		if err != nil {
			t.Fatalf("list sessions: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(sessions))
		}
		if sessions[0].Seed != "http://b.test/" || sessions[1].Seed != "http://a.test/" {
			t.Errorf("sessions not ordered newest first: %+v", sessions)
		}
	})

	t.Run("session history filters by seed", func(t *testing.T) {
		t.Parallel()

		mdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		defer mdb.Close() //nolint:errcheck

		ctx := context.Background()
		for _, seed := range []string{"http://a.test/", "http://b.test/", "http://a.test/"} {
			if _, err := mdb.SaveReport(ctx, testReport(seed)); err != nil {
				t.Fatalf("save report: %v", err)
			}
		}

		history, err := mdb.SessionHistory(ctx, "http://a.test/")
		if err != nil {
			t.Fatalf("session history: %v", err)
		}
		if len(history) != 2 {
			t.Errorf("expected 2 sessions for seed, got %d", len(history))
		}
	})

	t.Run("has recent session", func(t *testing.T) {
		t.Parallel()

		mdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		defer mdb.Close() //nolint:errcheck

		ctx := context.Background()
		if _, err := mdb.SaveReport(ctx, testReport("http://fresh.test/")); err != nil {
			t.Fatalf("save report: %v", err)
		}

		recent, err := mdb.HasRecentSession(ctx, "http://fresh.test/", time.Hour)
		if err != nil {
			t.Fatalf("has recent session: %v", err)
		}
		if !recent {
			t.Error("just-saved session should be recent")
		}

		recent, err = mdb.HasRecentSession(ctx, "http://never.test/", time.Hour)
		if err != nil {
			t.Fatalf("has recent session: %v", err)
		}
		if recent {
			t.Error("unknown seed must not be recent")
		}
	})

	t.Run("refuses to create when CreateIfNotExists is false", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})
}
