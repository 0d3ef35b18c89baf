package server

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhettg/noteapi/client"
	"github.com/rhettg/noteapi/internal/config"
	"github.com/rhettg/noteapi/internal/notes"
)

func TestEndToEndSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := notes.Open(ctx, config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "notes.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer store.Close()

	ts := httptest.NewServer(New(store).Handler())
	defer ts.Close()

	c := client.NewClient(ts.URL)

	list, err := c.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.CreateNote(ctx, notes.Note{Title: fmt.Sprintf("t%d", i), Content: "c"}))
	}

	list, err = c.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, notes.Note{ID: 3, Title: "t2", Content: "c"}, list[0])
	assert.Equal(t, int64(1), list[2].ID)

	require.NoError(t, store.Close())

	_, err = c.ListNotes(ctx)
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.StatusCode)

	body, err := c.Probe(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "OK", body)
}
