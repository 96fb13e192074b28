package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/WladimirSidorenko/word2vec/params"
)

// Exit statuses, one per error kind.
const (
	exitFailure     = 1
	exitConfig      = 2
	exitResource    = 3
	exitMissingTags = 5
	exitBadTags     = 6
	exitFormat      = 7
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "word2vec:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, params.ErrConfig):
		return exitConfig
	case errors.Is(err, params.ErrResource):
		return exitResource
	case errors.Is(err, params.ErrMissingTags):
		return exitMissingTags
	case errors.Is(err, params.ErrBadTag):
		return exitBadTags
	case errors.Is(err, params.ErrFormat):
		return exitFormat
	}
	return exitFailure
}
