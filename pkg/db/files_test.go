package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFile(t *testing.T) {
	db := openTestDB(t)

	f := &File{
		Path:       "/src/app.js",
		InputHash:  "in-1",
		OutputHash: "out-1",
		Flags:      "10110",
		Status:     StatusRewritten,
		Changes:    3,
	}
	require.NoError(t, db.RecordFile(f))
	assert.Positive(t, f.ID)
	firstID := f.ID

	// Re-recording the same path updates in place
	update := &File{
		Path:         "/src/app.js",
		InputHash:    "in-2",
		OutputHash:   "in-2",
		Flags:        "10110",
		Status:       StatusFailed,
		ErrorMessage: "permission denied",
	}
	require.NoError(t, db.RecordFile(update))
	assert.Equal(t, firstID, update.ID)

	got, err := db.GetFile("/src/app.js")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "in-2", got.InputHash)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "permission denied", got.ErrorMessage)
	assert.Zero(t, got.Changes)
}

func TestGetFile_NotFound(t *testing.T) {
	db := openTestDB(t)

	f, err := db.GetFile("/nonexistent")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestDeleteFile(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordFile(&File{Path: "/a.js", InputHash: "h", OutputHash: "h", Flags: "f", Status: StatusUnchanged}))
	require.NoError(t, db.DeleteFile("/a.js"))

	f, err := db.GetFile("/a.js")
	require.NoError(t, err)
	assert.Nil(t, f)

	assert.Error(t, db.DeleteFile("/a.js"))
}

func TestListFiles(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		status := StatusUnchanged
		if i%2 == 0 {
			status = StatusRewritten
		}
		require.NoError(t, db.RecordFile(&File{
			Path:       fmt.Sprintf("/src/file%d.js", i),
			InputHash:  "h",
			OutputHash: "h",
			Flags:      "f",
			Status:     status,
		}))
	}

	all, err := db.ListFiles(ListFilesOptions{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "/src/file0.js", all[0].Path)

	page, err := db.ListFiles(ListFilesOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "/src/file1.js", page[0].Path)

	rewritten, err := db.ListFiles(ListFilesOptions{Status: StatusRewritten})
	require.NoError(t, err)
	assert.Len(t, rewritten, 3)
}

func TestStatsAndClear(t *testing.T) {
	db := openTestDB(t)

	records := []*File{
		{Path: "/a.js", Status: StatusRewritten},
		{Path: "/b.js", Status: StatusRewritten},
		{Path: "/c.js", Status: StatusUnchanged},
		{Path: "/d.js", Status: StatusFailed, ErrorMessage: "boom"},
	}
	for _, f := range records {
		f.InputHash, f.OutputHash, f.Flags = "h", "h", "f"
		require.NoError(t, db.RecordFile(f))
	}
	require.NoError(t, db.SetMeta(MetaKeyLastRun, "2026-10-16T12:00:00Z"))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, map[string]int64{
		StatusRewritten: 2,
		StatusUnchanged: 1,
		StatusFailed:    1,
	}, stats.ByStatus)
	assert.Equal(t, "2026-10-16T12:00:00Z", stats.LastRun)
	assert.Equal(t, db.Path(), stats.Path)

	require.NoError(t, db.Clear())

	stats, err = db.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.ByStatus)
}

func TestUpToDate(t *testing.T) {
	rec := &File{InputHash: "in", OutputHash: "out", Flags: "10110", Status: StatusRewritten}

	assert.True(t, rec.UpToDate("out", "10110"))
	assert.False(t, rec.UpToDate("in", "10110"), "input hash means the file was reverted")
	assert.False(t, rec.UpToDate("out", "11110"), "other flags")

	pending := &File{InputHash: "in", OutputHash: "out", Flags: "10110", Status: StatusPending}
	assert.False(t, pending.UpToDate("in", "10110"))

	failed := &File{InputHash: "in", OutputHash: "in", Flags: "10110", Status: StatusFailed}
	assert.False(t, failed.UpToDate("in", "10110"))

	var missing *File
	assert.False(t, missing.UpToDate("in", "10110"))
}
