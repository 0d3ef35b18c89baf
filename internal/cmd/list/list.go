package list

import (
	"context"
	"fmt"
	"io"

	"github.com/rhettg/noteapi/client"
)

// DoList prints one line per note, newest first.
func DoList(ctx context.Context, w io.Writer, serverURL string) error {
	c := client.NewClient(serverURL)
	list, err := c.ListNotes(ctx)
	if err != nil {
		return err
	}

	for _, n := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", n.ID, n.Title, n.Content)
	}
	return nil
}
