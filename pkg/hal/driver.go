package hal

// HostTraverseFn is called once per host table entry. Returning an error
// aborts the traversal and propagates out of the traverse call.
type HostTraverseFn func(L3Host) error

// RouteTraverseFn is called once per route table entry.
type RouteTraverseFn func(L3Route) error

// EgressTraverseFn is called once per egress object.
type EgressTraverseFn func(EgressID, Egress) error

// EcmpTraverseFn is called once per ECMP group, with the member egress ids
// the hardware currently reports (links that are down are absent).
type EcmpTraverseFn func(EcmpGroup, []EgressID) error

// Driver is the boundary to the switch ASIC SDK. Implementations wrap a
// vendor SDK (or a simulation); everything above this interface treats the
// calls as synchronous, bounded operations.
//
// Traversal callbacks run on the caller's goroutine. A non-nil error from
// any call means the hardware and software state can no longer be trusted
// to reconcile; callers do not retry.
type Driver interface {
	// VlanList enumerates the hardware VLAN table.
	VlanList() ([]VlanData, error)

	// L3IntfFindByVlan looks up the L3 interface bound to a VLAN.
	// Returns an error wrapping util.ErrNotFound when the VLAN has none.
	L3IntfFindByVlan(vlan VlanID) (*L3Intf, error)

	// L2StationGet looks up the L2 station entry for a VLAN.
	// Returns an error wrapping util.ErrNotFound when there is none.
	L2StationGet(vlan VlanID) (*L2Station, error)

	// L3Info reports table capacities for bounding traversals.
	L3Info() (L3Info, error)

	// L3HostTraverse walks up to limit entries of the host table for one
	// address family.
	L3HostTraverse(family Family, limit int, fn HostTraverseFn) error

	// L3RouteTraverse walks up to limit entries of the route table for one
	// address family.
	L3RouteTraverse(family Family, limit int, fn RouteTraverseFn) error

	// L3EgressTraverse walks every egress object.
	L3EgressTraverse(fn EgressTraverseFn) error

	// EcmpTraverse walks every ECMP egress group.
	EcmpTraverse(fn EcmpTraverseFn) error

	// L3RouteDelete removes a route from hardware.
	L3RouteDelete(route L3Route) error

	// L3HostDelete removes a host entry from hardware.
	L3HostDelete(host L3Host) error

	// EcmpDestroy removes an ECMP egress group from hardware.
	EcmpDestroy(group EcmpGroup) error

	// L3EgressDestroy removes an egress object from hardware.
	L3EgressDestroy(id EgressID) error

	// L3IntfDelete removes an L3 interface from hardware.
	L3IntfDelete(intf L3Intf) error

	// L2StationDelete removes the L2 station entry of a VLAN.
	L2StationDelete(vlan VlanID) error

	// VlanDestroy removes a VLAN from hardware.
	VlanDestroy(vlan VlanID) error

	// DefaultVlan reports the hardware's designated default VLAN, which
	// can never be deleted.
	DefaultVlan() (VlanID, error)

	// CanUseHostTableForHostRoutes reports whether the platform promotes
	// full-mask routes into the host table.
	CanUseHostTableForHostRoutes() bool
}
