package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
)

func fingerprint(t *testing.T, data string) verification.Fingerprint {
	t.Helper()
	fp, err := verification.FingerprintBytes([]byte(data))
	if err != nil {
		t.Fatalf("FingerprintBytes: %v", err)
	}
	return fp
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	saved, err := store.SaveVerification(ctx, verification.Entry{
		Fingerprint: fingerprint(t, "content"),
		Score:       3000,
		Verdict:     true,
		TxID:        "0xabc",
	})
	if err != nil {
		t.Fatalf("SaveVerification: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected a generated id")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}

	got, err := store.GetVerification(ctx, saved.Fingerprint)
	if err != nil {
		t.Fatalf("GetVerification: %v", err)
	}
	if got.Score != 3000 || !got.Verdict || got.TxID != "0xabc" {
		t.Errorf("got %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	store := New()
	if _, err := store.GetVerification(context.Background(), fingerprint(t, "missing")); err == nil {
		t.Error("expected an error for an unknown fingerprint")
	}
}

func TestGetReturnsNewest(t *testing.T) {
	ctx := context.Background()
	store := New()
	fp := fingerprint(t, "resubmitted")

	first, err := store.SaveVerification(ctx, verification.Entry{Fingerprint: fp, Score: 3000})
	if err != nil {
		t.Fatalf("SaveVerification: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := store.SaveVerification(ctx, verification.Entry{Fingerprint: fp, Score: 3000, Duplicate: true}); err != nil {
		t.Fatalf("SaveVerification: %v", err)
	}

	got, err := store.GetVerification(ctx, fp)
	if err != nil {
		t.Fatalf("GetVerification: %v", err)
	}
	if !got.Duplicate {
		t.Error("expected the newest entry")
	}
	if got.ID == first.ID {
		t.Error("expected a distinct entry, not the first one")
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store := New()

	for i := 0; i < 5; i++ {
		_, err := store.SaveVerification(ctx, verification.Entry{
			Fingerprint: fingerprint(t, fmt.Sprintf("content-%d", i)),
			Score:       verification.Score(i * 1000),
		})
		if err != nil {
			t.Fatalf("SaveVerification: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	t.Run("NewestFirst", func(t *testing.T) {
		entries, err := store.ListVerifications(ctx, 0)
		if err != nil {
			t.Fatalf("ListVerifications: %v", err)
		}
		if len(entries) != 5 {
			t.Fatalf("len = %d, want 5", len(entries))
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
				t.Errorf("entries[%d] newer than entries[%d]", i, i-1)
			}
		}
	})

	t.Run("Limited", func(t *testing.T) {
		entries, err := store.ListVerifications(ctx, 2)
		if err != nil {
			t.Fatalf("ListVerifications: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("len = %d, want 2", len(entries))
		}
		if entries[0].Score != 4000 {
			t.Errorf("first entry score = %d, want the newest", entries[0].Score)
		}
	})
}
