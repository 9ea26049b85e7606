package sqlite

import (
	"testing"

	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/store/storetest"
)

func TestSqliteStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := OpenMemory()
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return NewWithDB(db)
	})
}
