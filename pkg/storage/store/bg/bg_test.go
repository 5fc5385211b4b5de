package bg

import (
	"testing"

	"github.com/korthochain/classvdf/pkg/storage/store/dbtest"
	"github.com/stretchr/testify/require"
)

func TestBadger(t *testing.T) {
	db, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	dbtest.Run(t, db)
}
