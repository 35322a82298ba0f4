// sramslice slices a matrix multiplication bundle for a scratch memory, prints the order of its
// operations and their estimated cost, or sweeps slicing strategies to find the best one.
//
// Examples:
//
//	sramslice -m=4096 -k=1024 -n=2048 -slices_m=8 -slices_n=4 -snake -double -ops
//	sramslice -m=4096 -k=1024 -n=2048 -slices_m=16 -slices_n=16 -slices_k=4 -sweep -hal=hbm_gbps=1600
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer"
	"github.com/gomlx/sramslicer/costmodel"
	"github.com/gomlx/sramslicer/hal"
	"github.com/gomlx/sramslicer/scheduler"
	"github.com/gomlx/sramslicer/slicing"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagM     = flag.Int("m", 4096, "Height of the output, and of the left-hand side operand.")
	flagK     = flag.Int("k", 1024, "Common (accumulation) dimension.")
	flagN     = flag.Int("n", 2048, "Width of the output, and of the right-hand side operand.")
	flagDType = flag.String("dtype", "bfloat16", "DType of the operands.")

	flagSlicesM = flag.Int("slices_m", 4, "Number of slices of the height. With -sweep, the maximum.")
	flagSlicesN = flag.Int("slices_n", 2, "Number of slices of the width. With -sweep, the maximum.")
	flagSlicesK = flag.Int("slices_k", 1, "Number of slices of the common dimension. With -sweep, the maximum.")

	flagSnake    = flag.Bool("snake", false, "Traverse the rows of the output back and forth.")
	flagRows     = flag.Bool("rows", false, "Traverse the output row by row, along the width first.")
	flagDouble   = flag.Bool("double", true, "Double buffer the slices of the inputs.")
	flagSRAM     = flag.Bool("sram", true, "Fetch the slices of the inputs into scratch memory.")
	flagEpilogue = flag.Bool("epilogue", false, "Add a fused bias addition consuming each output slice.")
	flagProducer = flag.Bool("producer", false, "Add a fused relu producing the left-hand side operand.")

	flagOps      = flag.Bool("ops", false, "Print the order of the operations.")
	flagSweep    = flag.Bool("sweep", false, "Evaluate all the slice counts up to -slices_m, -slices_n and -slices_k, and report the best.")
	flagParallel = flag.Int("parallel", runtime.NumCPU(), "Maximum number of strategies evaluated concurrently with -sweep.")
	flagHAL      = flag.String("hal", "", fmt.Sprintf("Overrides of the hardware description, e.g. \"freq_ghz=1.6,sram_bytes=48MiB\". "+
		"They are applied after the ones in $%s. Keys: %v", hal.EnvVar, hal.Keys()))
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %q. See 'sramslice -help'.", flag.Args())
		os.Exit(1)
	}
	h := must.M1(must.M1(hal.FromEnv()).Override(*flagHAL))

	config := baseConfig()
	if *flagSweep {
		sweep(h, config)
		return
	}
	config.SlicesM, config.SlicesN, config.SlicesK = *flagSlicesM, *flagSlicesN, *flagSlicesK
	s := must.M1(scheduler.NewGemmStrategy(config))
	if *flagOps {
		printOperations(must.M1(sramslicer.GenerateSolution(s)))
	}
	model := must.M1(costmodel.NewStrategyCostModel(h))
	printCosts(h, []sramslicer.Evaluation{{Strategy: s, Cost: must.M1(model.Model(s))}})
}

func baseConfig() scheduler.GemmConfig {
	dtype, found := dtypes.MapOfNames[*flagDType]
	if !found {
		klog.Errorf("Unknown dtype %q.", *flagDType)
		os.Exit(1)
	}
	return scheduler.GemmConfig{
		M: *flagM, K: *flagK, N: *flagN, DType: dtype,
		Snake:        *flagSnake,
		RowMajor:     *flagRows,
		DoubleBuffer: *flagDouble,
		InputsInSRAM: *flagSRAM,
		Epilogue:     *flagEpilogue,
		Producer:     *flagProducer,
	}
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newTable(header ...string) *lgtable.Table {
	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == 1 {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col == 0 {
				return s.Align(lipgloss.Right)
			}
			return s.Align(lipgloss.Left)
		})
	table.Row(header...)
	return table
}

func printOperations(sol *scheduler.Solution) {
	arena := sol.Strategy.Arena
	fmt.Println(titleStyle.Render("Operands"))
	table := newTable("#", "Tensor", "Slicing", "Slices", "Slice bytes")
	for _, op := range sol.Operands {
		var first slicing.Coordinate
		table.Row(fmt.Sprint(op.ID), op.Tensor.Shape().ToText(), op.String(),
			humanize.Comma(int64(slicing.TotalSlices(op))),
			humanize.Bytes(slicing.SliceSizeInBytes(op, first, false)))
	}
	fmt.Println(table.Render())

	fmt.Printf("%s\n", titleStyle.Render(fmt.Sprintf("Operations of %s", sol.Strategy.Name)))
	table = newTable("#", "Node", "Engine", "Inputs", "Outputs")
	for i, op := range sol.Operations {
		table.Row(fmt.Sprint(i), op.Node.Name, op.Engine().ShortName(),
			arena.FormatList(op.Inputs), arena.FormatList(op.Outputs))
	}
	fmt.Println(table.Render())
}

func printCosts(h hal.Description, evaluations []sramslicer.Evaluation) {
	fmt.Println(titleStyle.Render("Cost"))
	table := newTable("Strategy", "Time", "Traffic", "Bound", "MME", "VEC", "Fetch", "Evict", "Overhead", "Operations")
	for _, e := range evaluations {
		if e.Err != nil {
			table.Row(e.Strategy.Name, "invalid", e.Err.Error())
			continue
		}
		c := e.Cost
		bound := c.ExecutionType.String()
		if c.BandwidthBound {
			bound = "BandwidthBound"
		}
		table.Row(c.Strategy, nanos(c.TimeNano), humanize.Bytes(c.HBMTrafficBytes), bound,
			nanos(c.Matrix.TimeNano), nanos(c.Vector.TimeNano), humanize.Bytes(c.Fetch.HBMTrafficBytes),
			humanize.Bytes(c.Evict.HBMTrafficBytes), nanos(c.OverheadNano), humanize.Comma(int64(c.NumOperations)))
	}
	fmt.Println(table.Render())
	fmt.Printf("Scratch memory: %s, HBM: %gGB/s, clock: %gGHz\n",
		humanize.Bytes(h.SRAMCapacityBytes), h.HBMBandwidthGBps, h.FrequencyGHz)
}

func nanos(ns float64) string {
	if ns >= 1e6 {
		return fmt.Sprintf("%.3fms", ns/1e6)
	}
	if ns >= 1e3 {
		return fmt.Sprintf("%.2fµs", ns/1e3)
	}
	return fmt.Sprintf("%.0fns", ns)
}

// sweep evaluates all slice counts up to the flags values, with and without snake order, and prints the
// best ones.
func sweep(h hal.Description, base scheduler.GemmConfig) {
	var candidates []*scheduler.Strategy
	for slicesM := 1; slicesM <= *flagSlicesM; slicesM++ {
		for slicesN := 1; slicesN <= *flagSlicesN; slicesN++ {
			for slicesK := 1; slicesK <= *flagSlicesK; slicesK++ {
				for _, snake := range []bool{false, true} {
					config := base
					config.SlicesM, config.SlicesN, config.SlicesK, config.Snake = slicesM, slicesN, slicesK, snake
					s, err := scheduler.NewGemmStrategy(config)
					if err != nil {
						klog.Warningf("Skipping %s: %+v", config.Name(), err)
						continue
					}
					if s.SRAMFootprint() > h.SRAMCapacityBytes {
						klog.V(1).Infof("Skipping %s: slices don't fit in scratch memory", s.Name)
						continue
					}
					candidates = append(candidates, s)
				}
			}
		}
	}
	if len(candidates) == 0 {
		klog.Errorf("No slicing fits in %s of scratch memory.", humanize.Bytes(h.SRAMCapacityBytes))
		os.Exit(1)
	}

	bar := progressbar.Default(int64(len(candidates)), "Evaluating strategies")
	evaluations := must.M1(sramslicer.EvaluateStrategies(context.Background(), h, candidates, sramslicer.EvaluateOptions{
		Parallelism: *flagParallel,
		OnEvaluated: func(sramslicer.Evaluation) { _ = bar.Add(1) },
	}))
	_ = bar.Finish()
	best := must.M1(sramslicer.BestStrategy(evaluations))
	printCosts(h, evaluations)
	fmt.Printf("Best strategy: %s\n", evaluations[best].Cost)
	if *flagOps {
		printOperations(must.M1(sramslicer.GenerateSolution(evaluations[best].Strategy)))
	}
}
