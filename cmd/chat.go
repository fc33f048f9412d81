package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	orchestratorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/orchestrator"
	analyticsx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/analytics"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	configx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/config"
	logx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/logger"
)

var chatShowLead bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal with an in-memory session",
	RunE: func(cmd *cobra.Command, args []string) error {
		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.InitTo(os.Stderr, *logCfg)

		ctx := cmd.Context()
		engine, summarizer, err := newEngine(ctx)
		if err != nil {
			return err
		}
		events, err := analyticsx.OpenMemory()
		if err != nil {
			return err
		}
		defer events.Close()

		svc, err := orchestratorx.NewService(engine, orchestratorx.ServiceDeps{
			Store:      statex.NewMemoryStore(),
			Recorder:   events,
			Summarizer: summarizer,
		})
		if err != nil {
			return err
		}

		res, err := svc.Start(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Inmobilia: %s\n", res.Reply)

		prompt := promptui.Prompt{Label: "Tú"}
		for {
			text, err := prompt.Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				break
			}
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				continue
			}

			next, err := svc.HandleMessage(ctx, res.SessionID, text)
			if err != nil {
				fmt.Fprintf(out, "(error: %v)\n", err)
				continue
			}
			res = next
			fmt.Fprintf(out, "Inmobilia: %s\n", res.Reply)
			if chatShowLead {
				fmt.Fprintf(out, "  [%s · %s · %s]\n", res.Phase, res.Agent, res.Stage)
			}
		}

		lead, err := svc.Lead(ctx, res.SessionID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nEtapa: %s (%d%%)\n", lead.Stage(), lead.Completeness().Percent)
		if err := svc.Close(ctx, res.SessionID); err != nil {
			return err
		}

		rep, err := events.Report(ctx)
		if err != nil {
			return err
		}
		printReport(out, rep)
		return nil
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowLead, "show-state", false, "print phase, agent and lead stage after each reply")
	rootCmd.AddCommand(chatCmd)
}
