/*
Package tracing provides lightweight request tracing for the desktop API.

# Overview

Every HTTP request gets a span. A trace id arriving in X-Trace-ID is
continued, otherwise a new one is minted. Handlers open child spans around
slow operations such as launches and session restores, so one trace id ties
the request log line to the process and window activity it caused.

Finished spans are buffered and written to the zap logger by a collector
goroutine; a full buffer drops spans rather than blocking the request.

# Usage

	tracer := tracing.New("desktop", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "launch", func(ctx context.Context) error {
		_, err := launcher.Launch(ctx, app, opts)
		return err
	})

# Trace Format

Ids are random UUIDs, propagated with:
- X-Trace-ID: the whole request flow
- X-Span-ID: the current operation
*/
package tracing
