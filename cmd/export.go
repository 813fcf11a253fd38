package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shopeetools/revscope/internal/utils"
	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/client"
	"github.com/shopeetools/revscope/pkg/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <result.json>",
	Short: "Export a saved analysis result as PDF (falls back to HTML)",
	Long: `Export takes the analysis result saved by "analyze --save-result" and asks
the backend to render it to PDF. If the conversion endpoint is unavailable a
self-contained HTML document is produced instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("无法读取分析结果: %w", err)
		}

		log := activity.New(utils.Log)
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = viper.GetString("export.dir")
		}

		exporter := export.New(backendURL(), outDir, log)
		exporter.SetHTTPClient(proxiedHTTPClient())

		path, err := exporter.Export(context.Background(), client.NewResult(raw))
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("out", "", "Output directory (default from config export.dir)")
}
