package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/relayagent/internal/lang"
)

func init() {
	rootCmd.AddCommand(languagesCmd)
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List languages the relay can switch to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tLABEL\tTTS\tTRANSCRIPTION")
		for _, l := range lang.Languages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				l.Value, l.Label, l.Relay.TTSProvider, l.Relay.TranscriptionProvider)
		}
		return w.Flush()
	},
}
