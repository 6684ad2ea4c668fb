package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/loadtest"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var (
	benchUsers      int
	benchTasks      int
	benchClients    int
	benchOps        int
	benchWriteRatio float64
	benchDB         string
)

var benchCmd = &cobra.Command{
	Use:     "bench",
	GroupID: "sync",
	Short:   "Load-test a record store",
	Long: `Seed a throwaway record store and hammer it with concurrent simulated
devices, then print latency percentiles. Useful for sizing a
self-hosted store before pointing real devices at it.`,
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := benchDB
		if dbPath == "" {
			tmp, err := os.MkdirTemp("", "fd-bench-*")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer os.RemoveAll(tmp)
			dbPath = filepath.Join(tmp, "bench.db")
		}

		fmt.Println(ui.RenderAccent(fmt.Sprintf("Seeding %d user(s) with %d task(s) each", benchUsers, benchTasks)))
		ts, err := loadtest.CreateTestStore(dbPath, benchUsers, benchTasks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer ts.Close()

		fmt.Println(ui.RenderAccent(fmt.Sprintf("Running %d client(s) x %d op(s), write ratio %.2f",
			benchClients, benchOps, benchWriteRatio)))
		stats, err := ts.Run(loadtest.Options{
			Clients:      benchClients,
			OpsPerClient: benchOps,
			WriteRatio:   benchWriteRatio,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		stats.PrintStats()
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchUsers, "users", 10, "users to seed")
	benchCmd.Flags().IntVar(&benchTasks, "tasks", 50, "tasks per seeded user")
	benchCmd.Flags().IntVar(&benchClients, "clients", 20, "concurrent simulated devices")
	benchCmd.Flags().IntVar(&benchOps, "ops", 50, "operations per device")
	benchCmd.Flags().Float64Var(&benchWriteRatio, "write-ratio", 0.2, "fraction of operations that save")
	benchCmd.Flags().StringVar(&benchDB, "bench-db", "", "store path (default throwaway temp file)")

	rootCmd.AddCommand(benchCmd)
}
