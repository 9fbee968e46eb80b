// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"io"
	"os"
)

// Streams are the output destinations of a command invocation.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

type streamsKey struct{}

// WithStreams returns a context whose commands write to streams. Nil
// fields fall back to the process's standard streams.
func WithStreams(ctx context.Context, streams Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams)
}

// StreamsFrom returns the streams carried by ctx, defaulting to
// os.Stdout and os.Stderr.
func StreamsFrom(ctx context.Context) Streams {
	streams, _ := ctx.Value(streamsKey{}).(Streams)
	if streams.Stdout == nil {
		streams.Stdout = os.Stdout
	}
	if streams.Stderr == nil {
		streams.Stderr = os.Stderr
	}
	return streams
}
