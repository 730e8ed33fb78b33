package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sul-dlss/sdr-client/app"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := app.Run(os.Stdout, os.Stderr); err != nil {
		var exitErr *app.ExitError
		switch {
		case errors.Cause(err) == context.Canceled:
			logrus.Debugln(errors.Wrap(err, "ignore error since context is cancelled"))
		case errors.As(err, &exitErr):
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		default:
			logrus.Fatal(err)
		}
	}
}
