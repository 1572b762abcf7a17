package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Generate fluent builders from structural type declarations",
	Long: `forge resolves declared types into a closed type graph and generates
fluent builder constructors for them.

Declarations come from YAML schema documents or from compiled Go packages.
Each requested type is resolved together with its dependency closure and
rendered as one self-contained Go file of builders.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(generateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
