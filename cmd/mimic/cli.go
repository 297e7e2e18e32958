package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/darrencroton/mimic/pkg/elog"
	"github.com/darrencroton/mimic/pkg/runmeta"
)

var log elog.View

var (
	flagVerbose bool
	flagQuiet   bool
	flagSkip    bool
	flagJSON    bool
)

func commandInit() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-fatal output")
	rootCmd.PersistentFlags().BoolVar(&flagSkip, "skip", false, "leave existing output files in place instead of overwriting them")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "enable json log output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger := &elog.CLI{}

		if flagJSON {
			logger.DisableTTY = true
			logrus.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logrus.SetFormatter(logger)
		}
		logrus.SetLevel(logrus.TraceLevel)

		if flagVerbose {
			logger.IsVerbose = true
		}
		if flagQuiet {
			logger.DisableTTY = true
			logrus.SetLevel(logrus.ErrorLevel)
		}

		log = logger
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "mimic <param_file>",
	Short: "Evolve dark-matter merger trees into per-snapshot halo catalogs",
	Long: `mimic consumes a parameter file, a snapshot scale-factor list, and a set of
tree files (LHaloTree binary or Genesis HDF5), and emits halo catalogs
(packed binary or HDF5) with deterministic, reproducible content.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMimic(args[0]); err != nil {
			log.Errorf("%v", err)
			if errIsCPULimit(err) {
				os.Exit(2)
			}
			os.Exit(1)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "View build version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(runmeta.Version())
	},
}
