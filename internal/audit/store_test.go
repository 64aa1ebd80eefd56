package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_OpenCreatesParentDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "audit.db")

	store, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("Database file not created: %v", err)
	}
}

func TestStore_Append_ChainedEntries(t *testing.T) {
	store := newTestStore(t)

	e1, err := store.Append(EntryVisibility, VisibilityData{Hidden: false})
	if err != nil {
		t.Fatalf("Append e1: %v", err)
	}
	e2, err := store.Append(EntryCancel, CancelData{Index: -1, Cancelled: 1})
	if err != nil {
		t.Fatalf("Append e2: %v", err)
	}

	if e1.Sequence != FirstSequence || e1.PrevHash != "" {
		t.Errorf("first entry = seq %d prev %q, want seq 1 and empty prev", e1.Sequence, e1.PrevHash)
	}
	if e2.PrevHash != e1.Hash {
		t.Errorf("e2.PrevHash = %s, want %s", e2.PrevHash, e1.Hash)
	}
	if n, _ := store.Count(); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestStore_GetRoundTripVerifies(t *testing.T) {
	store := newTestStore(t)
	appended, err := store.Append(EntryLeave, LeaveData{Actor: Actor{UserID: "9"}, GuildID: "42", GuildName: "Guild"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Get(appended.Sequence)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Hash != appended.Hash {
		t.Errorf("Hash = %s, want %s", got.Hash, appended.Hash)
	}
	if !got.Verify() {
		t.Error("entry read back from the database should verify")
	}
	data, ok := got.Data.(map[string]any)
	if !ok || data["guild_id"] != "42" {
		t.Errorf("Data = %#v, want guild_id 42", got.Data)
	}

	if _, err := store.Get(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(99) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Recent(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := store.Append(EntryBackup, BackupData{Files: i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(Recent(2)) = %d, want 2", len(recent))
	}
	if recent[0].Sequence != 4 || recent[1].Sequence != 5 {
		t.Errorf("Recent(2) sequences = %d,%d, want 4,5", recent[0].Sequence, recent[1].Sequence)
	}

	none, err := store.Recent(0)
	if err != nil || len(none) != 0 {
		t.Errorf("Recent(0) = %v, %v; want empty", none, err)
	}
}

func TestStore_PersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")

	store1, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, err := store1.Append(EntryVisibility, VisibilityData{Hidden: false}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	e2, err := store1.Append(EntryVisibility, VisibilityData{Hidden: true})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	store1.Close()

	store2, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer store2.Close()

	e3, err := store2.Append(EntryLeave, LeaveData{GuildID: "1"})
	if err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if e3.Sequence != 3 {
		t.Errorf("e3.Sequence = %d, want 3", e3.Sequence)
	}
	if e3.PrevHash != e2.Hash {
		t.Errorf("e3.PrevHash = %s, want %s (chain broken)", e3.PrevHash, e2.Hash)
	}
}

func TestStore_VerifyChain(t *testing.T) {
	store := newTestStore(t)

	result, err := store.VerifyChain()
	if err != nil {
		t.Fatalf("VerifyChain on empty store: %v", err)
	}
	if !result.Valid || result.EntryCount != 0 {
		t.Errorf("empty chain = %+v, want valid with 0 entries", result)
	}

	for i := 0; i < 3; i++ {
		if _, err := store.Append(EntryCancel, CancelData{Index: i + 1, Cancelled: 1}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	result, err = store.VerifyChain()
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if !result.Valid || result.EntryCount != 3 {
		t.Errorf("chain = %+v, want valid with 3 entries", result)
	}
}

func TestStore_VerifyChainDetectsTampering(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := store.Append(EntryCancel, CancelData{Index: i + 1, Cancelled: 1}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if _, err := store.db.Exec(`UPDATE entries SET data = ? WHERE seq = 2`, `{"index":9,"cancelled":1}`); err != nil {
		t.Fatalf("tampering: %v", err)
	}

	result, err := store.VerifyChain()
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if result.Valid {
		t.Fatal("tampered chain should not be valid")
	}
	if result.BrokenAt != 2 {
		t.Errorf("BrokenAt = %d, want 2", result.BrokenAt)
	}
}

func TestStore_VerifyChainDetectsDeletion(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := store.Append(EntryBackup, BackupData{Files: i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if _, err := store.db.Exec(`DELETE FROM entries WHERE seq = 2`); err != nil {
		t.Fatalf("deleting: %v", err)
	}

	result, err := store.VerifyChain()
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if result.Valid || result.BrokenAt != 2 {
		t.Errorf("chain = %+v, want broken at 2", result)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
