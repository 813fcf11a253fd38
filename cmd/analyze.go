package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shopeetools/revscope/internal/utils"
	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/chart"
	"github.com/shopeetools/revscope/pkg/client"
	"github.com/shopeetools/revscope/pkg/export"
	"github.com/shopeetools/revscope/pkg/report"
	"github.com/shopeetools/revscope/pkg/upload"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <reviews.xlsx>",
	Short: "Upload a review export and render the analysis report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("无法读取文件: %w", err)
		}

		log := activity.New(utils.Log)
		uploads := upload.NewController()
		pending, err := uploads.Select(filepath.Base(path), content)
		if err != nil {
			return err
		}

		backend := backendURL()
		c := client.New(backend, log)
		c.SetHTTPClient(proxiedHTTPClient())

		engine := chart.NewEngine(chart.NewHeadlessRenderer(), log)
		renderer := report.NewRenderer(engine)

		var activated string
		res, err := c.Analyze(context.Background(), pending, func(r *client.Result) error {
			out, charts, rerr := renderer.Render(r.HTMLReport())
			if rerr != nil {
				return rerr
			}
			utils.Log.Debugf("activated %d charts", charts)
			activated = out
			return nil
		})
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = viper.GetString("export.dir")
		}

		if savePath, _ := cmd.Flags().GetString("save-result"); savePath != "" {
			if err := os.WriteFile(savePath, res.Raw(), 0o644); err != nil {
				return fmt.Errorf("保存分析结果失败: %w", err)
			}
			log.Infof("分析结果已保存: %s", savePath)
		}

		if save, _ := cmd.Flags().GetBool("save-report"); save {
			doc := export.FallbackDocument(activated)
			stamp := pending.Info.DownloadTime
			if stamp.IsZero() {
				stamp = time.Now()
			}
			name := export.Filename(res.Site(), res.ProductID(), stamp, "html")
			reportPath := filepath.Join(outDir, name)
			if err := os.WriteFile(reportPath, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("保存报告失败: %w", err)
			}
			log.Successf("报告已保存: %s", reportPath)
		}

		if doExport, _ := cmd.Flags().GetBool("export"); doExport {
			exporter := export.New(backend, outDir, log)
			exporter.SetHTTPClient(proxiedHTTPClient())
			if _, err := exporter.Export(context.Background(), res); err != nil {
				return err
			}
		}

		fmt.Printf("共 %d 条评论，平均评分 %.1f\n", res.TotalReviews(), res.AverageRating())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("out", "", "Output directory for exports (default from config export.dir)")
	analyzeCmd.Flags().Bool("save-report", false, "Save the activated report as a standalone HTML document")
	analyzeCmd.Flags().String("save-result", "", "Save the raw analysis result JSON to this path")
	analyzeCmd.Flags().Bool("export", false, "Export the report as PDF after analysis")
}
