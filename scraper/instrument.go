package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

type requestInfoKey struct{}

type requestInfo struct {
	id    uint64
	start time.Time
}

var requestCounter atomic.Uint64

// instrumentClient logs every request and its outcome at debug level.
func instrumentClient(c *resty.Client, proxy string) {
	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		info := requestInfo{id: requestCounter.Add(1), start: time.Now()}
		ctx := context.WithValue(req.Context(), requestInfoKey{}, info)
		req.SetContext(ctx)

		slog.DebugContext(ctx, "start request",
			"id", info.id,
			"method", req.Method,
			"url", req.URL,
			"proxy", proxy != "",
		)
		return nil
	})

	c.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
		slog.DebugContext(ctx, "end request",
			"id", info.id,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"duration", time.Since(info.start).String(),
		)
		return nil
	})

	c.OnError(func(req *resty.Request, err error) {
		ctx := req.Context()
		info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
		slog.DebugContext(ctx, "request failed",
			"id", info.id,
			"url", req.URL,
			"error", err,
		)
	})
}
