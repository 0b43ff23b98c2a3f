package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/newtron-network/warmboot/pkg/cli"
	"github.com/newtron-network/warmboot/pkg/hal/sim"
	"github.com/newtron-network/warmboot/pkg/snapshot"
	"github.com/newtron-network/warmboot/pkg/warmboot"
)

var (
	simHardware string
	simSnapshot string
	simDump     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate --hardware <fixture.yaml>",
	Short: "Run a discover/reconstruct/sweep cycle against simulated hardware",
	Long: `Simulate seeds an in-memory hardware driver from a YAML fixture,
optionally loads a persisted snapshot, then runs the full warm boot
cache lifecycle with nothing claimed: every discovered object is swept.
The deletion journal shows what a real teardown would issue, in order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := sim.LoadFixture(simHardware)
		if err != nil {
			return err
		}

		var snap *snapshot.Snapshot
		if simSnapshot != "" {
			snap, err = snapshot.Load(snapshot.NewFileStore(simSnapshot))
			if err != nil {
				return err
			}
		}

		cache := warmboot.New(driver)
		if err := cache.Populate(snap); err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}

		s := cache.Summarize()
		fmt.Println(cli.Bold("Discovered hardware state"))
		sumTable := cli.NewTable("TABLE", "OBJECTS")
		sumTable.Row("vlans", strconv.Itoa(s.Vlans))
		sumTable.Row("l3 interfaces", strconv.Itoa(s.Interfaces))
		sumTable.Row("l2 stations", strconv.Itoa(s.Stations))
		sumTable.Row("hosts", strconv.Itoa(s.Hosts))
		sumTable.Row("host routes", strconv.Itoa(s.HostRoutes))
		sumTable.Row("prefix routes", strconv.Itoa(s.Routes))
		sumTable.Row("egress objects", strconv.Itoa(s.Egress))
		sumTable.Row("ecmp groups", strconv.Itoa(s.EcmpGroups))
		sumTable.Flush()

		if snap != nil {
			intfs, err := cache.ReconstructInterfaces()
			if err != nil {
				return fmt.Errorf("interface reconstruction failed: %w", err)
			}
			vlans, err := cache.ReconstructVlans()
			if err != nil {
				return fmt.Errorf("vlan reconstruction failed: %w", err)
			}
			fmt.Println()
			fmt.Printf("Reconstructed %d interfaces, %d vlans\n", len(intfs), len(vlans))
		}

		if simDump != "" {
			if err := snapshot.SaveEcmp(snapshot.NewFileStore(simDump), cache.EcmpState()); err != nil {
				return err
			}
			fmt.Println()
			fmt.Println("Wrote ECMP state to", simDump)
		}

		if err := cache.Clear(); err != nil {
			return fmt.Errorf("teardown failed: %w", err)
		}

		fmt.Println()
		fmt.Println(cli.Bold("Teardown deletions (in order)"))
		delTable := cli.NewTable("#", "OPERATION", "OBJECT")
		for i, d := range driver.Deletions() {
			delTable.Row(strconv.Itoa(i+1), d.Op, d.Key)
		}
		delTable.Flush()
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simHardware, "hardware", "", "YAML hardware fixture (required)")
	simulateCmd.Flags().StringVar(&simSnapshot, "snapshot", "", "snapshot file to load before discovery")
	simulateCmd.Flags().StringVar(&simDump, "dump-ecmp", "", "write discovered ECMP state to this file before teardown")
	simulateCmd.MarkFlagRequired("hardware")
}
