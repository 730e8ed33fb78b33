package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sul-dlss/sdr-client/sdrclient"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func NewCmdLogin(in io.Reader, out io.Writer, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Prompt for email & password and exchange them for a login token",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.WithField("cmd", "login")
			return doLogin(logger, in, out, config)
		},
	}
}

func doLogin(logger logrus.FieldLogger, in io.Reader, out io.Writer, config *Config) error {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Email: ")
	email, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "cannot read email")
	}
	email = strings.TrimSpace(email)

	fmt.Fprint(out, "Password: ")
	password, err := readPassword(in, reader)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	client, err := newClient(config, true)
	if err != nil {
		return err
	}
	token, err := client.Login(context.Background(), email, password)
	if err != nil {
		if errors.Is(err, sdrclient.ErrInvalidEmail) || errors.Is(err, sdrclient.ErrInvalidCredentials) {
			return &ExitError{Code: 1, Message: err.Error(), Err: err}
		}
		return err
	}

	store, err := credentialStore(config)
	if err != nil {
		return err
	}
	if err := store.Write(token); err != nil {
		return err
	}
	logger.WithField("path", store.Path()).Debug("Token saved.")
	fmt.Fprintln(out, "Signed in.")
	return nil
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		blob, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", errors.Wrap(err, "cannot read password")
		}
		return string(blob), nil
	}
	password, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "cannot read password")
	}
	return strings.TrimRight(password, "\r\n"), nil
}
