package probe

import (
	"context"
	"fmt"
	"io"

	"github.com/rhettg/noteapi/client"
)

func DoProbe(ctx context.Context, w io.Writer, serverURL, path string) error {
	body, err := client.NewClient(serverURL).Probe(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, body)
	return nil
}
