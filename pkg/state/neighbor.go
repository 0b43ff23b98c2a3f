package state

import (
	"net"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/util"
)

// NeighborState tracks resolution of a neighbor entry.
type NeighborState string

const (
	// NeighborReachable marks a resolved neighbor with a known MAC
	NeighborReachable NeighborState = "reachable"
	// NeighborPending marks an unresolved neighbor (hardware programmed
	// to drop until resolution completes)
	NeighborPending NeighborState = "pending"
)

// NeighborEntry is one ARP or NDP table entry.
type NeighborEntry struct {
	IP     string        `json:"ip"`
	MAC    string        `json:"mac,omitempty"`
	Port   hal.PortID    `json:"port,omitempty"`
	IntfID hal.IntfID    `json:"interface_id"`
	State  NeighborState `json:"state"`
}

// NeighborTable is a VLAN's ARP or NDP table.
type NeighborTable struct {
	Entries []*NeighborEntry `json:"entries,omitempty"`
}

// NewNeighborTable creates an empty table.
func NewNeighborTable() *NeighborTable {
	return &NeighborTable{}
}

// AddEntry adds a resolved neighbor.
func (t *NeighborTable) AddEntry(ip net.IP, mac net.HardwareAddr, port hal.PortID, intf hal.IntfID) {
	t.Entries = append(t.Entries, &NeighborEntry{
		IP:     util.CanonicalIP(ip),
		MAC:    mac.String(),
		Port:   port,
		IntfID: intf,
		State:  NeighborReachable,
	})
}

// AddPendingEntry adds an unresolved neighbor.
func (t *NeighborTable) AddPendingEntry(ip net.IP, intf hal.IntfID) {
	t.Entries = append(t.Entries, &NeighborEntry{
		IP:     util.CanonicalIP(ip),
		IntfID: intf,
		State:  NeighborPending,
	})
}

// GetEntry looks up a neighbor by IP.
func (t *NeighborTable) GetEntry(ip net.IP) (*NeighborEntry, bool) {
	if t == nil {
		return nil, false
	}
	key := util.CanonicalIP(ip)
	for _, e := range t.Entries {
		if e.IP == key {
			return e, true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (t *NeighborTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}
