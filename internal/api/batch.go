package api

import (
	"context"
	"sync"
)

// Batch operations fan out one request per id with bounded concurrency.
// There is no server-side grouping and no rollback: ids that succeed stay
// mutated even when others fail. The per-id results let callers patch
// exactly the ids that went through.
//
// An empty id set is a no-op: zero requests are issued.

// MarkAlertsRead marks every id read, concurrently, and reports per-id
// outcomes in input order.
func (c *Client) MarkAlertsRead(ctx context.Context, ids []int64) BatchResult {
	return c.fanOut(ctx, ids, func(ctx context.Context, id int64) error {
		_, err := c.MarkAlertRead(ctx, id)
		return err
	})
}

// DeleteAlerts deletes every id, concurrently, and reports per-id outcomes
// in input order.
func (c *Client) DeleteAlerts(ctx context.Context, ids []int64) BatchResult {
	return c.fanOut(ctx, ids, c.DeleteAlert)
}

func (c *Client) fanOut(ctx context.Context, ids []int64, op func(context.Context, int64) error) BatchResult {
	res := BatchResult{}
	if len(ids) == 0 {
		return res
	}

	cfg, _ := c.snapshot()
	sem := make(chan struct{}, cfg.BatchConcurrency)

	res.Results = make([]ItemResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		res.Results[i].ID = id

		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				res.Results[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			res.Results[i].Err = op(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for _, it := range res.Results {
		if it.Err != nil {
			res.Failed++
		} else {
			res.OK++
		}
	}
	return res
}
