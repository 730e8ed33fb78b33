package app

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultLogLevel = logrus.InfoLevel

var (
	configFile     string
	verbosityLevel string
	serviceURL     string
)

func Run(out, stderr io.Writer) error {
	c := RootCommand(os.Stdin, out, stderr)
	return c.Execute()
}

func RootCommand(in io.Reader, out, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sdr",
		Short:         "The SDR Command Line Interface is a tool to interact with the Stanford Digital Repository",
		SilenceErrors: true,
	}

	cmd.SetOut(out)
	cmd.SetErr(stderr)
	cmd.SetIn(in)
	cmd.Root().SilenceUsage = true

	config := &Config{}
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(config); err != nil {
			return err
		}

		if serviceURL != "" {
			config.Service.URL = serviceURL
		}

		level := verbosityLevel
		if level == "" {
			level = config.Logging.Level
		}
		if err := setUpLogger(stderr, level, config.Logging.Format); err != nil {
			return err
		}

		return nil
	}

	cmd.AddCommand(NewCmdDeposit(out, config, true))
	cmd.AddCommand(NewCmdDeposit(out, config, false))
	cmd.AddCommand(NewCmdDepositModel(out, config))
	cmd.AddCommand(NewCmdLogin(in, out, config))
	cmd.AddCommand(NewCmdStatus(out, config))
	cmd.AddCommand(NewCmdConfig(out, config))
	cmd.AddCommand(NewCmdValidate(out))
	cmd.AddCommand(NewCmdVersion(out))

	cmd.PersistentFlags().StringVarP(&verbosityLevel, "verbosity", "v", "", "Log level (debug, info, warn, error, fatal, panic)")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	cmd.PersistentFlags().StringVar(&serviceURL, "service-url", "", "Override the default URL of the SDR API")

	return cmd
}
