package state

import "github.com/newtron-network/warmboot/pkg/hal"

// MemberPort is one port membership of a VLAN.
type MemberPort struct {
	Port   hal.PortID `json:"port"`
	Tagged bool       `json:"tagged"`
}

// Vlan represents a software VLAN with its neighbor tables.
type Vlan struct {
	ID          hal.VlanID   `json:"id"`
	Name        string       `json:"name,omitempty"`
	InterfaceID hal.IntfID   `json:"interface_id,omitempty"`
	Members     []MemberPort `json:"members,omitempty"`

	ArpTable *NeighborTable `json:"arp_table,omitempty"`
	NdpTable *NeighborTable `json:"ndp_table,omitempty"`
}

// NewVlan creates a VLAN with empty neighbor tables.
func NewVlan(id hal.VlanID) *Vlan {
	return &Vlan{
		ID:       id,
		ArpTable: NewNeighborTable(),
		NdpTable: NewNeighborTable(),
	}
}

// AddPort adds a member port. A port already present keeps its original
// tagging.
func (v *Vlan) AddPort(port hal.PortID, tagged bool) {
	for _, m := range v.Members {
		if m.Port == port {
			return
		}
	}
	v.Members = append(v.Members, MemberPort{Port: port, Tagged: tagged})
}

// HasPort reports whether the port is a member of this VLAN.
func (v *Vlan) HasPort(port hal.PortID) bool {
	for _, m := range v.Members {
		if m.Port == port {
			return true
		}
	}
	return false
}

// SetPorts replaces the member list.
func (v *Vlan) SetPorts(members []MemberPort) {
	v.Members = members
}
