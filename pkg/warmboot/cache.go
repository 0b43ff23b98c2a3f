// Package warmboot implements the hardware state cache and garbage
// collector used across a warm restart of the control process.
//
// The cache is populated once from the live hardware tables, consulted by
// the reconciliation logic through a claim-based lookup API while the
// desired configuration is applied, and finally swept: everything nothing
// claimed is deleted from hardware in dependency order.
//
// The claim protocol is cooperative. Every table except the egress table
// uses presence-in-map as the liveness marker, and claiming erases the
// entry. Egress objects can be referenced by several hosts, routes and
// ECMP groups at once, so they carry a claimed flag instead and stay in
// the map until teardown.
//
// The cache is owned by a single reconciliation worker for its entire
// lifetime; nothing here locks.
package warmboot

import (
	"fmt"
	"net"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/snapshot"
	"github.com/newtron-network/warmboot/pkg/state"
	"github.com/newtron-network/warmboot/pkg/util"
)

// VrfIPKey keys the host and host-route tables.
type VrfIPKey struct {
	VRF hal.VRF
	IP  string // canonical form, see util.CanonicalIP
}

// VlanMacKey keys the L3 interface table.
type VlanMacKey struct {
	Vlan hal.VlanID
	MAC  string
}

// VrfPrefixKey keys the prefix route table.
type VrfPrefixKey struct {
	VRF    hal.VRF
	Prefix string
	Mask   string
}

// pathSetKey is the canonical rendering of an ECMP path set. Keying the
// group table by resolved path set is what makes a duplicate discovery of
// the same logical group detectable.
type pathSetKey string

func keyForPaths(paths hal.EgressIDSet) pathSetKey {
	return pathSetKey(paths.String())
}

// VlanInfo is a discovered hardware VLAN: port membership plus the bound
// interface id (0 when the VLAN has no L3 interface).
type VlanInfo struct {
	Vlan     hal.VlanID
	Untagged hal.PortBitmap
	AllPorts hal.PortBitmap
	IntfID   hal.IntfID
}

// EgressEntry is a discovered egress object with its claimed flag.
type EgressEntry struct {
	Egress  hal.Egress
	Claimed bool
}

// EcmpEntry is a discovered ECMP group with its resolved path set.
type EcmpEntry struct {
	Group hal.EcmpGroup
	Paths hal.EgressIDSet
}

// Cache holds every live hardware forwarding object discovered at warm
// boot, keyed by hardware identity (the namespace that survives a
// restart), plus per-object claimed state.
type Cache struct {
	driver hal.Driver
	snap   *snapshot.Snapshot

	vlanInfo         map[hal.VlanID]VlanInfo
	intfByVlanMac    map[VlanMacKey]hal.L3Intf
	stationByVlan    map[hal.VlanID]hal.L2Station
	hostByVrfIP      map[VrfIPKey]hal.L3Host
	hostRouteByVrfIP map[VrfIPKey]hal.L3Route
	routeByVrfPrefix map[VrfPrefixKey]hal.L3Route
	egress           map[hal.EgressID]*EgressEntry
	ecmpByPathSet    map[pathSetKey]*EcmpEntry

	// ecmpPaths is the per-group path map: from the snapshot when it
	// recorded one, otherwise from hardware discovery. It is also what
	// gets serialized for the next boot.
	ecmpPaths     map[hal.EgressID]hal.EgressIDSet
	ecmpPopulated bool

	// hostTableRefs is scratch state for the egress traversal: every
	// egress id some host entry pointed at. Cleared once discovery ends.
	hostTableRefs hal.EgressIDSet

	dropEgressID  hal.EgressID
	toCPUEgressID hal.EgressID
}

// New creates an empty cache bound to a hardware driver.
func New(driver hal.Driver) *Cache {
	return &Cache{
		driver:           driver,
		vlanInfo:         make(map[hal.VlanID]VlanInfo),
		intfByVlanMac:    make(map[VlanMacKey]hal.L3Intf),
		stationByVlan:    make(map[hal.VlanID]hal.L2Station),
		hostByVrfIP:      make(map[VrfIPKey]hal.L3Host),
		hostRouteByVrfIP: make(map[VrfIPKey]hal.L3Route),
		routeByVrfPrefix: make(map[VrfPrefixKey]hal.L3Route),
		egress:           make(map[hal.EgressID]*EgressEntry),
		ecmpByPathSet:    make(map[pathSetKey]*EcmpEntry),
		ecmpPaths:        make(map[hal.EgressID]hal.EgressIDSet),
		hostTableRefs:    make(hal.EgressIDSet),
		dropEgressID:     hal.InvalidEgressID,
		toCPUEgressID:    hal.InvalidEgressID,
	}
}

func hostKey(vrf hal.VRF, ip net.IP) VrfIPKey {
	return VrfIPKey{VRF: vrf, IP: util.CanonicalIP(ip)}
}

func routeKey(vrf hal.VRF, prefix, mask net.IP) VrfPrefixKey {
	return VrfPrefixKey{VRF: vrf, Prefix: util.CanonicalIP(prefix), Mask: util.CanonicalIP(mask)}
}

func intfKey(vlan hal.VlanID, mac net.HardwareAddr) VlanMacKey {
	return VlanMacKey{Vlan: vlan, MAC: mac.String()}
}

// FindVlanInfo looks up a discovered VLAN.
func (c *Cache) FindVlanInfo(vlan hal.VlanID) (VlanInfo, bool) {
	info, ok := c.vlanInfo[vlan]
	return info, ok
}

// ClaimVlanInfo marks a VLAN as still wanted, excluding it from teardown.
func (c *Cache) ClaimVlanInfo(vlan hal.VlanID) {
	delete(c.vlanInfo, vlan)
}

// FindInterface looks up a discovered L3 interface by (VLAN, MAC).
func (c *Cache) FindInterface(vlan hal.VlanID, mac net.HardwareAddr) (hal.L3Intf, bool) {
	intf, ok := c.intfByVlanMac[intfKey(vlan, mac)]
	return intf, ok
}

// ClaimInterface marks an interface as still wanted.
func (c *Cache) ClaimInterface(vlan hal.VlanID, mac net.HardwareAddr) {
	delete(c.intfByVlanMac, intfKey(vlan, mac))
}

// FindStation looks up a discovered L2 station by VLAN.
func (c *Cache) FindStation(vlan hal.VlanID) (hal.L2Station, bool) {
	s, ok := c.stationByVlan[vlan]
	return s, ok
}

// ClaimStation marks a station as still wanted.
func (c *Cache) ClaimStation(vlan hal.VlanID) {
	delete(c.stationByVlan, vlan)
}

// FindHost looks up a discovered host entry by (VRF, IP).
func (c *Cache) FindHost(vrf hal.VRF, ip net.IP) (hal.L3Host, bool) {
	h, ok := c.hostByVrfIP[hostKey(vrf, ip)]
	return h, ok
}

// ClaimHost marks a host entry as still wanted.
func (c *Cache) ClaimHost(vrf hal.VRF, ip net.IP) {
	delete(c.hostByVrfIP, hostKey(vrf, ip))
}

// FindHostRoute looks up a discovered full-mask route by (VRF, IP).
func (c *Cache) FindHostRoute(vrf hal.VRF, ip net.IP) (hal.L3Route, bool) {
	r, ok := c.hostRouteByVrfIP[hostKey(vrf, ip)]
	return r, ok
}

// ClaimHostRoute marks a host route as still wanted.
func (c *Cache) ClaimHostRoute(vrf hal.VRF, ip net.IP) {
	delete(c.hostRouteByVrfIP, hostKey(vrf, ip))
}

// FindRoute looks up a discovered prefix route by (VRF, prefix, mask).
func (c *Cache) FindRoute(vrf hal.VRF, prefix, mask net.IP) (hal.L3Route, bool) {
	r, ok := c.routeByVrfPrefix[routeKey(vrf, prefix, mask)]
	return r, ok
}

// ClaimRoute marks a prefix route as still wanted.
func (c *Cache) ClaimRoute(vrf hal.VRF, prefix, mask net.IP) {
	delete(c.routeByVrfPrefix, routeKey(vrf, prefix, mask))
}

// FindEgress looks up a discovered egress object by id.
func (c *Cache) FindEgress(id hal.EgressID) (EgressEntry, bool) {
	e, ok := c.egress[id]
	if !ok {
		return EgressEntry{}, false
	}
	return *e, true
}

// FindEgressFor resolves through the host table to the egress object a
// host entry points at, without claiming either. The host entry may name
// an ECMP group instead of an individual egress object, in which case
// there is no match here.
func (c *Cache) FindEgressFor(vrf hal.VRF, ip net.IP) (hal.EgressID, EgressEntry, bool) {
	h, ok := c.hostByVrfIP[hostKey(vrf, ip)]
	if !ok {
		return hal.InvalidEgressID, EgressEntry{}, false
	}
	e, ok := c.egress[h.EgressID]
	if !ok {
		return hal.InvalidEgressID, EgressEntry{}, false
	}
	return h.EgressID, *e, true
}

// ClaimEgress sets the claimed flag on an egress object. Idempotent:
// several referents may share one egress object and each may claim it.
func (c *Cache) ClaimEgress(id hal.EgressID) bool {
	e, ok := c.egress[id]
	if !ok {
		return false
	}
	e.Claimed = true
	return true
}

// FindEcmp looks up a discovered ECMP group by its resolved path set.
func (c *Cache) FindEcmp(paths hal.EgressIDSet) (EcmpEntry, bool) {
	e, ok := c.ecmpByPathSet[keyForPaths(paths)]
	if !ok {
		return EcmpEntry{}, false
	}
	return *e, true
}

// ClaimEcmp marks an ECMP group as still wanted.
func (c *Cache) ClaimEcmp(paths hal.EgressIDSet) {
	delete(c.ecmpByPathSet, keyForPaths(paths))
}

// PathsForEcmp returns the recorded member set for an ECMP group id, as a
// copy the caller may modify. The record comes from the snapshot when one
// was loaded, otherwise from hardware discovery. When nothing was ever
// recorded (cold start, or we exited with no ECMP entries) it returns the
// empty set; otherwise an unknown id is a real inconsistency and yields a
// not-found error.
func (c *Cache) PathsForEcmp(id hal.EgressID) (hal.EgressIDSet, error) {
	if len(c.ecmpPaths) == 0 {
		return hal.EgressIDSet{}, nil
	}
	paths, ok := c.ecmpPaths[id]
	if !ok {
		return nil, util.NewNotFoundError("ecmp group", fmt.Sprint(id))
	}
	out := make(hal.EgressIDSet, len(paths))
	for p := range paths {
		out.Add(p)
	}
	return out, nil
}

// DropEgressID returns the id of the singleton drop egress object, or
// InvalidEgressID if none was discovered.
func (c *Cache) DropEgressID() hal.EgressID {
	return c.dropEgressID
}

// ToCPUEgressID returns the id of the singleton generic to-CPU egress
// object, or InvalidEgressID if none was discovered.
func (c *Cache) ToCPUEgressID() hal.EgressID {
	return c.toCPUEgressID
}

// FillVlanPortInfo copies a discovered VLAN's port membership into a
// software VLAN, untagged ports first and the remaining member ports
// tagged. Returns false when the VLAN was not discovered (or was already
// claimed).
func (c *Cache) FillVlanPortInfo(v *state.Vlan) bool {
	info, ok := c.vlanInfo[v.ID]
	if !ok {
		return false
	}
	var members []state.MemberPort
	for _, p := range info.Untagged.Ports() {
		members = append(members, state.MemberPort{Port: p, Tagged: false})
	}
	for _, p := range info.AllPorts.Ports() {
		if !info.Untagged.Has(p) {
			members = append(members, state.MemberPort{Port: p, Tagged: true})
		}
	}
	v.SetPorts(members)
	return true
}

// EcmpState exports the discovered ECMP membership table for the next
// warm boot's snapshot. This is the only state this core persists.
func (c *Cache) EcmpState() *snapshot.EcmpState {
	return snapshot.EcmpStateFromPaths(c.ecmpPaths)
}

// Summary reports per-table object counts, for operator tooling.
type Summary struct {
	Vlans      int
	Interfaces int
	Stations   int
	Hosts      int
	HostRoutes int
	Routes     int
	Egress     int
	EcmpGroups int
}

// Summarize returns the current per-table counts.
func (c *Cache) Summarize() Summary {
	return Summary{
		Vlans:      len(c.vlanInfo),
		Interfaces: len(c.intfByVlanMac),
		Stations:   len(c.stationByVlan),
		Hosts:      len(c.hostByVrfIP),
		HostRoutes: len(c.hostRouteByVrfIP),
		Routes:     len(c.routeByVrfPrefix),
		Egress:     len(c.egress),
		EcmpGroups: len(c.ecmpByPathSet),
	}
}
