package audit

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"construyo-opshub/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newWriter(t *testing.T) *Writer {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return &Writer{db: testutil.NewTestDB(t, &DeliveryLog{}), node: node}
}

func TestAppendPersistsTerminalEntry(t *testing.T) {
	w := newWriter(t)

	w.Append(context.Background(), Entry{
		UserID:     "u1",
		RecordType: "invoice",
		RecordID:   "inv1",
		Provider:   "resend",
		Status:     StatusSuccess,
		RetryCount: 1,
	})

	var rows []DeliveryLog
	require.NoError(t, w.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, StatusSuccess, rows[0].Status)
	require.Equal(t, 1, rows[0].RetryCount)
	require.NotNil(t, rows[0].CompletedAt)
}

func TestAppendNeverPanicsOnInsertFailure(t *testing.T) {
	w := newWriter(t)
	// drop the table so the insert fails
	require.NoError(t, w.db.Migrator().DropTable(&DeliveryLog{}))

	require.NotPanics(t, func() {
		w.Append(context.Background(), Entry{UserID: "u1", Provider: "zapier", Status: StatusFailed})
	})
}

func TestRecentReturnsOnlyOwnRows(t *testing.T) {
	w := newWriter(t)
	w.Append(context.Background(), Entry{UserID: "u1", Provider: "zapier", Status: StatusSuccess})
	w.Append(context.Background(), Entry{UserID: "u2", Provider: "zapier", Status: StatusFailed})

	logs, err := w.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "u1", logs[0].UserID)
}
