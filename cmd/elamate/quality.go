package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxedonia/ela-mate-web/internal/repository"
)

var qualityCmd = &cobra.Command{
	Use:   "quality [files or URLs...]",
	Short: "Estimate the JPEG quality each image was last saved at",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		failed := 0
		for _, arg := range args {
			resp, err := svc.EstimateQuality(cmd.Context(), repository.Source{Location: arg})
			if err != nil {
				failed++
				fmt.Printf("%s %s: %v\n", errorColor("FAIL"), arg, err)
				continue
			}
			fmt.Printf("%s %s (%s %dx%d)\n", formatQuality(resp.EstimatedQuality), arg,
				resp.Metadata.Format, resp.Metadata.Width, resp.Metadata.Height)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d images failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
}
