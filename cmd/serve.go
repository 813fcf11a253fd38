package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shopeetools/revscope/internal/server"
	"github.com/shopeetools/revscope/internal/utils"
	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/chart"
	"github.com/shopeetools/revscope/pkg/client"
	"github.com/shopeetools/revscope/pkg/export"
	"github.com/shopeetools/revscope/pkg/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web UI",
	Long:  `Serve an upload page backed by the analysis backend, with server-side chart activation and a live activity stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("bind")
		if addr == "" {
			addr = viper.GetString("server.listen")
		}
		user, _ := cmd.Flags().GetString("username")
		pass, _ := cmd.Flags().GetString("password")

		log := activity.New(utils.Log)
		backend := backendURL()

		c := client.New(backend, log)
		c.SetHTTPClient(proxiedHTTPClient())

		exporter := export.New(backend, viper.GetString("export.dir"), log)
		exporter.SetHTTPClient(proxiedHTTPClient())

		engine := chart.NewEngine(chart.NewHeadlessRenderer(), log)
		renderer := report.NewRenderer(engine)

		srv := server.New(c, exporter, renderer, log, user, pass)
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "", "HTTP listen address (default from config server.listen)")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
}
