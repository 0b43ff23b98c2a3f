// Package state defines the software-level forwarding state model: the
// interface and VLAN views the reconciliation logic diffs against its
// desired configuration. The same structs are what the persisted snapshot
// decodes into, so JSON tags are part of the snapshot format.
package state

import "github.com/newtron-network/warmboot/pkg/hal"

// Interface represents a software L3 interface.
//
// Hardware stores VRF, VLAN, MAC and MTU; the human-assigned name and the
// configured addresses exist only in software and must come from the
// persisted snapshot on a warm boot.
type Interface struct {
	ID     hal.IntfID  `json:"id"`
	VRF    hal.VRF     `json:"vrf"`
	VlanID hal.VlanID  `json:"vlan"`
	Name   string      `json:"name"`
	MAC    string      `json:"mac"`
	MTU    int         `json:"mtu"`

	// Addresses holds the configured IPs in CIDR notation
	Addresses []string `json:"addresses,omitempty"`
}

// SwitchState is the top-level software state tree: interfaces plus VLANs
// with their neighbor tables.
type SwitchState struct {
	Interfaces []*Interface `json:"interfaces"`
	Vlans      []*Vlan      `json:"vlans"`
}

// InterfaceByVlan looks up an interface by its bound VLAN id.
func (s *SwitchState) InterfaceByVlan(vlan hal.VlanID) (*Interface, bool) {
	for _, intf := range s.Interfaces {
		if intf.VlanID == vlan {
			return intf, true
		}
	}
	return nil, false
}

// Interface looks up an interface by id.
func (s *SwitchState) Interface(id hal.IntfID) (*Interface, bool) {
	for _, intf := range s.Interfaces {
		if intf.ID == id {
			return intf, true
		}
	}
	return nil, false
}

// Vlan looks up a VLAN by id.
func (s *SwitchState) Vlan(id hal.VlanID) (*Vlan, bool) {
	for _, v := range s.Vlans {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// AddInterface appends an interface to the state tree.
func (s *SwitchState) AddInterface(intf *Interface) {
	s.Interfaces = append(s.Interfaces, intf)
}

// AddVlan appends a VLAN to the state tree.
func (s *SwitchState) AddVlan(v *Vlan) {
	s.Vlans = append(s.Vlans, v)
}
