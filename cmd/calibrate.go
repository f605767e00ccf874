package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SlugLab/CXLMemSim/rob/calib"
	"github.com/SlugLab/CXLMemSim/rob/trace"
)

var (
	referenceTracePath string  // Reference (hardware) trace
	candidateTracePath string  // Candidate (engine) trace
	outputConfigPath   string  // Output calibrated parameters (JSON)
	targetRatio        float64 // Target candidate/reference latency ratio
)

// calibrateCmd derives engine parameters from a pair of traces
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Derive calibration parameters from reference and candidate traces",
	Run: func(cmd *cobra.Command, args []string) {
		reference, err := trace.ParseFile(referenceTracePath)
		if err != nil {
			logrus.Fatalf("unable to parse reference trace: %v", err)
		}
		candidate, err := trace.ParseFile(candidateTracePath)
		if err != nil {
			logrus.Fatalf("unable to parse candidate trace: %v", err)
		}
		logrus.Infof("parsed %d reference and %d candidate records",
			len(reference), len(candidate))

		analysis := calib.Analyze(reference, candidate, targetRatio)

		if outputConfigPath != "" {
			if err := analysis.Params.Save(outputConfigPath); err != nil {
				logrus.Fatalf("unable to save calibration params: %v", err)
			}
			logrus.Infof("calibration parameters saved to %s", outputConfigPath)
		}

		analysis.Print()
	},
}

func init() {
	calibrateCmd.Flags().StringVar(&referenceTracePath, "reference-trace", "", "Path to the reference O3PipeView trace")
	calibrateCmd.Flags().StringVar(&candidateTracePath, "candidate-trace", "", "Path to the candidate O3PipeView trace")
	calibrateCmd.Flags().StringVar(&outputConfigPath, "output-config", "", "Path to write the calibrated parameters (JSON)")
	calibrateCmd.Flags().Float64Var(&targetRatio, "target-ratio", 1.0, "Target candidate/reference latency ratio")
	_ = calibrateCmd.MarkFlagRequired("reference-trace")
	_ = calibrateCmd.MarkFlagRequired("candidate-trace")

	rootCmd.AddCommand(calibrateCmd)
}
