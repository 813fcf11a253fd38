package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopeetools/revscope/internal/utils"
	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the analysis backend's health",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(backendURL(), activity.New(utils.Log))
		c.SetHTTPClient(proxiedHTTPClient())

		ok, pdfAvailable, err := c.Health(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("backend: ok=%v pdf_available=%v\n", ok, pdfAvailable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
