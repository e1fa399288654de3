// Command prospect generates search query plans with a language model and
// executes them against the Serper API to collect business leads.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/config"
	"github.com/FranksOps/prospect/internal/logging"
)

var (
	cfgPath string
	cfg     *config.Config
	log     *logrus.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "prospect",
		Short: "AI-planned lead generation over web and maps search",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			log, err = logging.New(cfg.LogLevel, cfg.LogFile)
			return err
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(newPlanCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newMergeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
