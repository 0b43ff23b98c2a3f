package warmboot

import (
	"fmt"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/state"
	"github.com/newtron-network/warmboot/pkg/util"
)

// vlanForCPUEgress is the pseudo-VLAN that to-CPU egress entries get
// mapped to. Host entries pointing there are not real per-VLAN neighbors.
const vlanForCPUEgress hal.VlanID = 0

// ReconstructInterfaces rebuilds the software interface view by combining
// discovered hardware interfaces (VRF, VLAN, MAC, MTU) with the persisted
// snapshot (name, configured addresses), which hardware does not store.
//
// A discovered interface the snapshot cannot name is an invariant
// violation: the prior software state must explain everything programmed
// into hardware.
func (c *Cache) ReconstructInterfaces() ([]*state.Interface, error) {
	if c.snap == nil {
		return nil, util.NewInvariantError("snapshot-present", "interface reconstruction",
			"no persisted snapshot loaded")
	}
	var out []*state.Interface
	for _, intf := range c.intfByVlanMac {
		dumped, ok := c.snap.SwState.InterfaceByVlan(intf.Vlan)
		if !ok {
			return nil, util.NewInvariantError("interface-in-snapshot",
				fmt.Sprintf("vlan %d", intf.Vlan),
				"discovered hardware interface missing from persisted software state")
		}
		rebuilt := &state.Interface{
			// Interface id tracks the VLAN id under the one-interface-
			// per-VLAN scheme.
			ID:        hal.IntfID(intf.Vlan),
			VRF:       intf.VRF,
			VlanID:    intf.Vlan,
			Name:      dumped.Name,
			MAC:       intf.MAC.String(),
			MTU:       intf.MTU,
			Addresses: dumped.Addresses,
		}
		out = append(out, rebuilt)
	}
	return out, nil
}

// ReconstructVlans rebuilds the software VLAN view: port membership and
// bound interface id from hardware, ARP/NDP tables from the host table
// filtered against the persisted snapshot.
//
// The snapshot filter guards against host-table entries that exist for
// route next-hops rather than directly-connected neighbors; those must
// not resurface as ARP/NDP entries. A host entry whose egress object is
// programmed to drop becomes a pending (unresolved) neighbor.
func (c *Cache) ReconstructVlans() ([]*state.Vlan, error) {
	if c.snap == nil {
		return nil, util.NewInvariantError("snapshot-present", "vlan reconstruction",
			"no persisted snapshot loaded")
	}

	rebuilt := make(map[hal.VlanID]*state.Vlan, len(c.vlanInfo))
	var out []*state.Vlan
	for id, info := range c.vlanInfo {
		v := state.NewVlan(id)
		for _, p := range info.Untagged.Ports() {
			v.AddPort(p, false)
		}
		for _, p := range info.AllPorts.Ports() {
			if !info.Untagged.Has(p) {
				v.AddPort(p, true)
			}
		}
		v.InterfaceID = info.IntfID
		rebuilt[id] = v
		out = append(out, v)
	}

	for _, host := range c.hostByVrfIP {
		entry, ok := c.egress[host.EgressID]
		if !ok {
			// The host entry may point at an ECMP group
			continue
		}
		eg := entry.Egress
		if eg.Vlan == vlanForCPUEgress {
			continue
		}

		// Only promote entries the prior software state already knew as
		// neighbors on this VLAN.
		dumpedVlan, ok := c.snap.SwState.Vlan(eg.Vlan)
		if !ok {
			continue
		}
		dumpedTable := dumpedVlan.ArpTable
		if host.V6 {
			dumpedTable = dumpedVlan.NdpTable
		}
		if _, known := dumpedTable.GetEntry(host.IP); !known {
			continue
		}

		v, ok := rebuilt[eg.Vlan]
		if !ok {
			return nil, util.NewInvariantError("vlan-discovered",
				fmt.Sprintf("vlan %d", eg.Vlan),
				"host entry egress names a vlan that discovery never saw")
		}
		table := v.ArpTable
		if host.V6 {
			table = v.NdpTable
		}
		intfID := hal.IntfID(eg.Vlan)
		if eg.Flags.IsDrop() {
			table.AddPendingEntry(host.IP, intfID)
		} else {
			table.AddEntry(host.IP, eg.MAC, eg.Port, intfID)
		}
	}
	return out, nil
}
