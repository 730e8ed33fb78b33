package app

import (
	"fmt"
	"io"

	"github.com/sul-dlss/sdr-client/deposit"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var file string

func NewCmdValidate(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON request document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doValidate(out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File")

	return cmd
}

func doValidate(out io.Writer) error {
	if file == "" {
		return errors.New("parameter empty")
	}
	data, err := afero.ReadFile(appFs, file)
	if err != nil {
		return errors.Wrap(err, "cannot read file")
	}
	err = deposit.ValidateWireJSON(data)
	schemaErr := &deposit.SchemaError{}
	if errors.As(err, &schemaErr) {
		fmt.Fprintln(out, "The request document is invalid!")
		for _, issue := range schemaErr.Issues {
			fmt.Fprintln(out, issue)
		}
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d issue(s) found", len(schemaErr.Issues)), Err: err}
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, "The request document is valid.")
	return err
}
