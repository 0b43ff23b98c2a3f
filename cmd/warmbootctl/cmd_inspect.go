package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/warmboot/pkg/cli"
	"github.com/newtron-network/warmboot/pkg/snapshot"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [snapshot-file]",
	Short: "Summarize a persisted warm boot snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pathArg string
		if len(args) == 1 {
			pathArg = args[0]
		}
		store, err := snapshotStore(pathArg)
		if err != nil {
			return err
		}
		snap, err := snapshot.Load(store)
		if err != nil {
			return err
		}

		fmt.Println(cli.Bold("Interfaces"))
		intfTable := cli.NewTable("ID", "NAME", "VLAN", "VRF", "MTU", "ADDRESSES")
		for _, intf := range snap.SwState.Interfaces {
			intfTable.Row(
				strconv.Itoa(int(intf.ID)),
				intf.Name,
				strconv.Itoa(int(intf.VlanID)),
				strconv.Itoa(int(intf.VRF)),
				strconv.Itoa(intf.MTU),
				strings.Join(intf.Addresses, ","),
			)
		}
		intfTable.Flush()

		fmt.Println()
		fmt.Println(cli.Bold("VLANs"))
		vlanTable := cli.NewTable("ID", "PORTS", "INTERFACE", "ARP", "NDP")
		for _, v := range snap.SwState.Vlans {
			vlanTable.Row(
				strconv.Itoa(int(v.ID)),
				strconv.Itoa(len(v.Members)),
				strconv.Itoa(int(v.InterfaceID)),
				strconv.Itoa(v.ArpTable.Len()),
				strconv.Itoa(v.NdpTable.Len()),
			)
		}
		vlanTable.Flush()

		fmt.Println()
		if !snap.EcmpPopulated() {
			fmt.Println(cli.Yellow("No persisted ECMP path map (legacy snapshot format)"))
			return nil
		}
		fmt.Println(cli.Bold("ECMP groups"))
		ecmpTable := cli.NewTable("EGRESS-ID", "PATHS")
		for id, paths := range snap.EcmpPaths() {
			ecmpTable.Row(strconv.Itoa(int(id)), paths.String())
		}
		ecmpTable.Flush()
		return nil
	},
}
