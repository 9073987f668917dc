package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/app"
)

var classifyFile string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one waveform window from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if classifyFile == "" {
			return errors.New("--file is required")
		}
		return getApp().Classify(app.ClassifyOptions{
			Path: classifyFile,
			In:   cmd.InOrStdin(),
			Out:  cmd.OutOrStdout(),
		})
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", `Waveform window JSON file, "-" for stdin`)
}
