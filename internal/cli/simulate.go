package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/app"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

var (
	simulateFault      string
	simulateCount      int
	simulateFeeder     string
	simulateSubstation string
	simulateNoise      float64
	simulateSeed       uint64
	simulatePublish    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic waveform windows carrying a fault signature",
	RunE: func(cmd *cobra.Command, args []string) error {
		faultType, err := models.ParseFaultType(strings.ToUpper(simulateFault))
		if err != nil {
			return err
		}
		if simulateCount <= 0 {
			return fmt.Errorf("--count must be greater than zero")
		}
		if simulateNoise < 0 {
			return fmt.Errorf("--noise cannot be negative")
		}

		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			FaultType:    faultType,
			Count:        simulateCount,
			FeederID:     simulateFeeder,
			SubstationID: simulateSubstation,
			Noise:        simulateNoise,
			Seed:         simulateSeed,
			Publish:      simulatePublish,
			Out:          cmd.OutOrStdout(),
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateFault, "fault", string(models.FaultNormal), "Fault signature: NORMAL, LINE_BREAK, SHORT_CIRCUIT or OVERLOAD")
	simulateCmd.Flags().IntVar(&simulateCount, "count", 1, "Number of windows to generate")
	simulateCmd.Flags().StringVar(&simulateFeeder, "feeder", "FDR-001", "Feeder ID stamped on each window")
	simulateCmd.Flags().StringVar(&simulateSubstation, "substation", "SS-001", "Substation ID stamped on each window")
	simulateCmd.Flags().Float64Var(&simulateNoise, "noise", 0, "Standard deviation of gaussian noise added to samples")
	simulateCmd.Flags().Uint64Var(&simulateSeed, "seed", 1, "Noise seed")
	simulateCmd.Flags().BoolVar(&simulatePublish, "publish", false, "Publish to the Kafka waveform topic instead of printing")
}
