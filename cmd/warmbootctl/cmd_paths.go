package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/snapshot"
	"github.com/newtron-network/warmboot/pkg/util"
)

var pathsCmd = &cobra.Command{
	Use:   "paths <egress-id> [snapshot-file]",
	Short: "Show the persisted ECMP path set for a group id",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid egress id %q", args[0])
		}
		var pathArg string
		if len(args) == 2 {
			pathArg = args[1]
		}
		store, err := snapshotStore(pathArg)
		if err != nil {
			return err
		}
		snap, err := snapshot.Load(store)
		if err != nil {
			return err
		}
		if !snap.EcmpPopulated() {
			return fmt.Errorf("snapshot carries no ECMP path map")
		}
		paths, ok := snap.EcmpPaths()[hal.EgressID(id)]
		if !ok {
			return util.NewNotFoundError("ecmp group", args[0])
		}
		fmt.Println(paths)
		return nil
	},
}
