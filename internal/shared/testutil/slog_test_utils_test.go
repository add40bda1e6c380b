package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("keeps With attributes and groups", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		child := logger.With(slog.String("component", "merge"))
		child.WithGroup("origin").Info("built", slog.Int("ranges", 3))
		logger.Info("plain")

		AssertLogAttr(t, handler, "component", "merge")
		AssertLogAttr(t, handler, "origin.ranges", int64(3))
		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.NotContains(t, records[1].Attrs, "component")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("message 1")
		logger.Info("message 2")
		assert.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
		AssertNoErrors(t, handler)
	})
}

func TestWriteWorkbook(t *testing.T) {
	path := WriteWorkbook(t, t.TempDir(), "fixture.xlsx", map[string][][]any{
		"Zones":  {{"Destination ZIP", "Ground"}, {"00400-00599", 2}},
		"Extras": {{"note"}},
	})

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Extras", "Zones"}, f.GetSheetList())
	rows, err := f.GetRows("Zones")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Destination ZIP", "Ground"}, {"00400-00599", "2"}}, rows)
}
