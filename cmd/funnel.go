package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	analyticsx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/analytics"
	configx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/config"
)

var funnelJSON bool

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Print the conversation funnel and per-field statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configx.New[analyticsx.Config]("ANALYTICS")
		if err != nil {
			return err
		}
		events, err := analyticsx.OpenSQLite(cfg.Path)
		if err != nil {
			return err
		}
		defer events.Close()

		rep, err := events.Report(cmd.Context())
		if err != nil {
			return err
		}
		if funnelJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		printReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

func printReport(w io.Writer, rep analyticsx.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSESSIONS")
	for _, s := range rep.Funnel {
		fmt.Fprintf(tw, "%s\t%d\n", s.Name, s.Sessions)
	}
	tw.Flush()

	if len(rep.Fields) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tCAPTURED\tINFERRED\tDECLINED\tCLARIFICATIONS")
	for _, f := range rep.Fields {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", f.Field, f.Captured, f.Inferred, f.Declined, f.Clarifications)
	}
	tw.Flush()
}

func init() {
	funnelCmd.Flags().BoolVar(&funnelJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(funnelCmd)
}
