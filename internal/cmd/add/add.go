package add

import (
	"context"
	"log/slog"

	"github.com/rhettg/noteapi/client"
	"github.com/rhettg/noteapi/internal/notes"
)

func DoAdd(ctx context.Context, serverURL, title, content string) error {
	c := client.NewClient(serverURL)

	err := c.CreateNote(ctx, notes.Note{Title: title, Content: content})
	if err != nil {
		return err
	}
	slog.Debug("created note", "title", title)
	return nil
}
