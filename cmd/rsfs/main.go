// Command rsfs manipulates a volume image from the shell.
//
//	rsfs format --sectors 4096
//	rsfs put notes.txt notes
//	rsfs ls
//	rsfs cat notes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mit-pdos/go-rsfs/config"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "rsfs",
		Short:         "Inspect and modify an rsfs volume image",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Apply()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&cfg.Image, "image", "i", cfg.Image, "volume image file")
	flags.Uint64Var(&cfg.MaxFileSize, "max-file", cfg.MaxFileSize, "largest file a write can produce, in bytes")
	flags.Uint64Var(&cfg.Debug, "debug", cfg.Debug, "debug print level")

	root.AddCommand(
		formatCmd(cfg),
		lsCmd(cfg),
		dfCmd(cfg),
		touchCmd(cfg),
		putCmd(cfg),
		catCmd(cfg),
		rmCmd(cfg),
	)
	return root
}
