// Package hal defines the hardware identity namespace and the driver
// boundary to the switch ASIC SDK.
//
// Every id space gets its own type even though the underlying widths
// match: VLAN ids, egress ids and interface ids live in unrelated hardware
// tables, and a raw shared integer type is how keys end up in the wrong
// map. Records mirror the hardware tables one struct per table, the same
// way config-state mirror structs are done elsewhere in the org.
package hal

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// VlanID identifies a VLAN (1-4094).
type VlanID uint16

// VRF identifies a virtual routing domain.
type VRF int32

// EgressID identifies an egress object or an ECMP egress group.
type EgressID int32

// InvalidEgressID marks an unset egress id.
const InvalidEgressID EgressID = -1

// PortID identifies a front-panel port.
type PortID uint16

// IntfID identifies an L3 interface.
type IntfID int32

// Family selects the address family for host/route traversals.
type Family int

const (
	// FamilyV4 selects IPv4 tables
	FamilyV4 Family = iota
	// FamilyV6 selects IPv6 tables
	FamilyV6
)

func (f Family) String() string {
	if f == FamilyV6 {
		return "v6"
	}
	return "v4"
}

// PortBitmap is a set of ports, standing in for the hardware port bitmap.
type PortBitmap map[PortID]struct{}

// NewPortBitmap builds a bitmap from the given ports.
func NewPortBitmap(ports ...PortID) PortBitmap {
	pb := make(PortBitmap, len(ports))
	for _, p := range ports {
		pb[p] = struct{}{}
	}
	return pb
}

// Add adds a port to the bitmap.
func (pb PortBitmap) Add(p PortID) {
	pb[p] = struct{}{}
}

// Has reports whether the port is in the bitmap.
func (pb PortBitmap) Has(p PortID) bool {
	_, ok := pb[p]
	return ok
}

// Ports returns the member ports in ascending order.
func (pb PortBitmap) Ports() []PortID {
	out := make([]PortID, 0, len(pb))
	for p := range pb {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EgressIDSet is a set of egress ids, used for ECMP group membership.
type EgressIDSet map[EgressID]struct{}

// NewEgressIDSet builds a set from the given ids.
func NewEgressIDSet(ids ...EgressID) EgressIDSet {
	s := make(EgressIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add adds an id to the set.
func (s EgressIDSet) Add(id EgressID) {
	s[id] = struct{}{}
}

// Has reports whether the id is in the set.
func (s EgressIDSet) Has(id EgressID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the member ids in ascending order.
func (s EgressIDSet) Sorted() []EgressID {
	out := make([]EgressID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether two sets have the same members.
func (s EgressIDSet) Equal(other EgressIDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// String renders the set as a comma-separated sorted id list.
func (s EgressIDSet) String() string {
	parts := make([]string, 0, len(s))
	for _, id := range s.Sorted() {
		parts = append(parts, strconv.Itoa(int(id)))
	}
	return strings.Join(parts, ",")
}

// EgressFlags carries the hardware flag bits of an egress object.
type EgressFlags uint32

const (
	// FlagDrop marks an egress object programmed to discard traffic
	FlagDrop EgressFlags = 1 << iota
	// FlagL2ToCPU marks an egress object trapping L2 traffic to the CPU
	FlagL2ToCPU
	// FlagCopyToCPU marks an egress object copying traffic to the CPU
	FlagCopyToCPU
)

// IsDrop reports whether the drop bit is set.
func (f EgressFlags) IsDrop() bool {
	return f&FlagDrop != 0
}

// IsToCPU reports whether either to-CPU bit is set.
func (f EgressFlags) IsToCPU() bool {
	return f&(FlagL2ToCPU|FlagCopyToCPU) != 0
}

// VlanData is one entry of the hardware VLAN table.
type VlanData struct {
	Vlan VlanID
	// Ports is the full member bitmap. On the platforms this runs on the
	// SDK reports untagged membership through the full bitmap as well, so
	// discovery seeds both sets from it.
	Ports    PortBitmap
	Untagged PortBitmap
}

// L3Intf is one entry of the hardware L3 interface table.
type L3Intf struct {
	Intf IntfID
	Vlan VlanID
	MAC  net.HardwareAddr
	VRF  VRF
	MTU  int
}

// L2Station is one entry of the hardware L2 station (MAC termination) table.
type L2Station struct {
	Vlan VlanID
	MAC  net.HardwareAddr
}

// L3Host is one entry of the hardware host table: an exact-match
// (VRF, IP) record pointing at one egress object.
type L3Host struct {
	VRF      VRF
	IP       net.IP
	V6       bool
	EgressID EgressID
}

// Key renders the host identity for logging.
func (h L3Host) Key() string {
	return fmt.Sprintf("vrf %d host %s", h.VRF, h.IP)
}

// L3Route is one entry of the hardware route table.
type L3Route struct {
	VRF      VRF
	Net      net.IP
	Mask     net.IP
	V6       bool
	EgressID EgressID
	// ECMP is set when EgressID names an ECMP group rather than a single
	// egress object.
	ECMP bool
}

// Key renders the route identity for logging.
func (r L3Route) Key() string {
	return fmt.Sprintf("vrf %d route %s/%s", r.VRF, r.Net, r.Mask)
}

// Egress is one entry of the hardware egress object table: how to forward
// to a resolved next hop, or a special action (drop, to CPU).
type Egress struct {
	Vlan  VlanID
	Intf  IntfID
	MAC   net.HardwareAddr
	Port  PortID
	Flags EgressFlags
}

// EcmpGroup is one hardware ECMP egress group record.
type EcmpGroup struct {
	EgressID EgressID
	MaxPaths int
}

// L3Info reports the platform's L3 table capacities, used to bound
// traversals.
type L3Info struct {
	MaxHosts  int
	MaxRoutes int
}
