//go:build windows
// +build windows

package app

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
)

func interrupt(cancel <-chan struct{}) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)
	select {
	case sig := <-c:
		return errors.Wrapf(context.Canceled, "received signal %s", sig)
	case <-cancel:
		return errors.New("canceled")
	}
}
