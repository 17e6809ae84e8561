package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_UsesConfiguredJournalMode(t *testing.T) {
	for _, mode := range []string{"wal", "delete"} {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Storage.SQLiteJournalMode = mode

			store, db, err := openStore(cfg)
			require.NoError(t, err)
			defer db.Close()
			defer store.Close()

			var got string
			require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&got))
			assert.Equal(t, mode, got)
		})
	}
}
