// Package netx holds small HTTP helpers shared by the client.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrLinkExpired is returned when the storage host refuses a presigned URL.
var ErrLinkExpired = errors.New("stream link expired or invalid")

// newDownloadPolicy bounds retries of transient storage failures.
var newDownloadPolicy = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	return backoff.WithMaxRetries(b, 3)
}

// Download fetches a presigned GET url into w and returns the byte count.
// 5xx answers are retried; nothing is retried once bytes reached w.
func Download(ctx context.Context, c *http.Client, url string, w io.Writer) (int64, error) {
	if c == nil {
		c = http.DefaultClient
	}

	var n int64
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(ErrLinkExpired)
		case resp.StatusCode >= 500:
			return fmt.Errorf("download failed: %s", resp.Status)
		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b)))
		}

		n, err = io.Copy(w, resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("download interrupted after %d bytes: %w", n, err))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(newDownloadPolicy(), ctx)); err != nil {
		return n, err
	}
	return n, nil
}
