//go:build !windows
// +build !windows

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
)

// interrupt blocks until the process is told to stop or cancel is closed.
// The error returned on a signal has context.Canceled as its cause.
func interrupt(cancel <-chan struct{}) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	select {
	case sig := <-c:
		return errors.Wrapf(context.Canceled, "received signal %s", sig)
	case <-cancel:
		return errors.New("canceled")
	}
}
