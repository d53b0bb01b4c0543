package announcements

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jd-116/announcement-hub/dispatch"
)

// fanOut posts the message to every channel, at most concurrency at a time,
// each post bounded by timeout. Receipts are returned in channel order.
// A failed channel never cancels its siblings
func fanOut(ctx context.Context, poster dispatch.Poster, channels []string, message dispatch.Message,
	timeout time.Duration, concurrency int) []dispatch.Receipt {
	receipts := make([]dispatch.Receipt, len(channels))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, channelID := range channels {
		i, channelID := i, channelID
		g.Go(func() error {
			postCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				postCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			receipt := poster.PostMessage(postCtx, channelID, message)
			receipt.ChannelID = channelID
			receipts[i] = receipt
			return nil
		})
	}

	// Posts report failures in their receipts, so Wait never returns an error
	_ = g.Wait()
	return receipts
}
