package cmd

import (
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/config"
	logx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "inmobilia",
	Short: "Conversational lead capture for Peruvian real estate",
	Long: `Inmobilia guides a prospective buyer through a short Spanish
conversation: it asks for data-protection consent under Ley N° 29733,
collects contact details, location and property preferences, and hands
the finished lead to the sales team.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configx.UseEnvFile(envFile)
		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*logCfg)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (defaults to ./.env when present)")
}
