package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SlugLab/CXLMemSim/rob"
	"github.com/SlugLab/CXLMemSim/rob/trace"
)

var (
	replayTracePath  string  // Input O3PipeView trace
	replayParamsPath string  // Calibration parameter file (JSON or YAML)
	replayOutputPath string  // Optional output trace with engine retire timestamps
	windowSize       int     // In-flight window capacity
	startCycle       int64   // Initial cycle counter value
	oracleBase       float64 // Congestion oracle base latency (cycles)
	oraclePerAccess  float64 // Congestion oracle per-access latency (cycles)
	oracleEpoch      int64   // Congestion oracle window width (ticks)
)

// replayCmd replays a hardware trace through the retirement engine
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an O3PipeView trace through the retirement engine",
	Run: func(cmd *cobra.Command, args []string) {
		params := rob.DefaultCalibrationParams()
		if replayParamsPath != "" {
			var err error
			params, err = rob.LoadCalibrationParams(replayParamsPath)
			if err != nil {
				logrus.Fatalf("unable to load calibration params: %v", err)
			}
		}

		records, err := trace.ParseFile(replayTracePath)
		if err != nil {
			logrus.Fatalf("unable to parse trace: %v", err)
		}
		logrus.Infof("%d instructions to process", len(records))

		instructions := make([]rob.InstructionGroup, len(records))
		for i, r := range records {
			instructions[i] = rob.InstructionGroup{
				Address:         r.Address,
				CycleCount:      r.CycleCount,
				FetchTimestamp:  r.FetchTimestamp,
				RetireTimestamp: r.RetireTimestamp,
				Instruction:     r.Instruction,
			}
		}

		oracle := rob.NewCongestionOracle(oracleBase, oraclePerAccess, oracleEpoch)
		engine := rob.NewEngine(oracle, rob.DefaultLatencyTable(), params, rob.EngineConfig{
			WindowSize:    windowSize,
			StartCycle:    startCycle,
			RecordRetired: replayOutputPath != "",
		})

		engine.Replay(instructions)
		engine.Snapshot().Print()

		if replayOutputPath != "" {
			out := make([]trace.Record, 0, len(engine.RetiredInstructions()))
			for _, ins := range engine.RetiredInstructions() {
				out = append(out, trace.Record{
					FetchTimestamp:  ins.FetchTimestamp,
					RetireTimestamp: ins.RetireTimestamp,
					Address:         ins.Address,
					CycleCount:      ins.CycleCount,
					Instruction:     ins.Instruction,
				})
			}
			if err := trace.WriteFile(replayOutputPath, out, false); err != nil {
				logrus.Fatalf("unable to write output trace: %v", err)
			}
			logrus.Infof("engine trace written to %s", replayOutputPath)
		}
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayTracePath, "trace", "", "Path to the input O3PipeView trace")
	replayCmd.Flags().StringVar(&replayParamsPath, "params", "", "Path to a calibration parameter file (JSON or YAML)")
	replayCmd.Flags().StringVar(&replayOutputPath, "output-trace", "", "Path to write the engine's output trace")
	replayCmd.Flags().IntVar(&windowSize, "window-size", 256, "In-flight window capacity")
	replayCmd.Flags().Int64Var(&startCycle, "start-cycle", 1687, "Initial cycle counter value")
	replayCmd.Flags().Float64Var(&oracleBase, "oracle-base-latency", 100, "Congestion oracle base latency (cycles)")
	replayCmd.Flags().Float64Var(&oraclePerAccess, "oracle-per-access", 5, "Congestion oracle per-access latency (cycles)")
	replayCmd.Flags().Int64Var(&oracleEpoch, "oracle-epoch", 10000, "Congestion oracle window width (ticks)")
	_ = replayCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(replayCmd)
}
