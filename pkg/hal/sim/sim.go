// Package sim provides an in-memory hal.Driver used by tests and by
// warmbootctl's simulate command. Tables are seeded directly, traversal
// order follows seeding order, and every deletion is journaled so tests
// can assert on ordering.
package sim

import (
	"fmt"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/util"
)

// Deletion is one journaled deletion call.
type Deletion struct {
	Op  string // driver operation name, e.g. "l3_route_delete"
	Key string // object identity, e.g. "vrf 0 route 10.0.0.0/255.255.255.0"
}

// Driver is a seedable in-memory implementation of hal.Driver.
type Driver struct {
	vlans    []hal.VlanData
	intfs    []hal.L3Intf
	stations map[hal.VlanID]hal.L2Station
	hosts    []hal.L3Host
	routes   []hal.L3Route

	egressOrder []hal.EgressID
	egresses    map[hal.EgressID]hal.Egress

	ecmps     []hal.EcmpGroup
	ecmpPaths map[hal.EgressID][]hal.EgressID

	l3Info      hal.L3Info
	defaultVlan hal.VlanID
	hostPromote bool

	// FailOps injects an error for a named driver operation.
	FailOps map[string]error

	deletions []Deletion
}

// New creates an empty simulated driver with sane platform defaults.
func New() *Driver {
	return &Driver{
		stations:    make(map[hal.VlanID]hal.L2Station),
		egresses:    make(map[hal.EgressID]hal.Egress),
		ecmpPaths:   make(map[hal.EgressID][]hal.EgressID),
		l3Info:      hal.L3Info{MaxHosts: 8192, MaxRoutes: 16384},
		defaultVlan: 1,
		hostPromote: true,
		FailOps:     make(map[string]error),
	}
}

// AddVlan seeds a VLAN table entry.
func (d *Driver) AddVlan(v hal.VlanData) {
	d.vlans = append(d.vlans, v)
}

// AddIntf seeds an L3 interface.
func (d *Driver) AddIntf(i hal.L3Intf) {
	d.intfs = append(d.intfs, i)
}

// AddStation seeds an L2 station entry for a VLAN.
func (d *Driver) AddStation(s hal.L2Station) {
	d.stations[s.Vlan] = s
}

// AddHost seeds a host table entry.
func (d *Driver) AddHost(h hal.L3Host) {
	d.hosts = append(d.hosts, h)
}

// AddRoute seeds a route table entry.
func (d *Driver) AddRoute(r hal.L3Route) {
	d.routes = append(d.routes, r)
}

// AddEgress seeds an egress object. Traversal visits objects in seeding
// order.
func (d *Driver) AddEgress(id hal.EgressID, e hal.Egress) {
	d.egressOrder = append(d.egressOrder, id)
	d.egresses[id] = e
}

// AddEcmp seeds an ECMP group with the member ids hardware would report.
func (d *Driver) AddEcmp(g hal.EcmpGroup, members []hal.EgressID) {
	d.ecmps = append(d.ecmps, g)
	d.ecmpPaths[g.EgressID] = members
}

// SetL3Info overrides the platform table capacities.
func (d *Driver) SetL3Info(info hal.L3Info) {
	d.l3Info = info
}

// SetDefaultVlan overrides the default VLAN.
func (d *Driver) SetDefaultVlan(v hal.VlanID) {
	d.defaultVlan = v
}

// SetHostRoutePromotion toggles host-table promotion of full-mask routes.
func (d *Driver) SetHostRoutePromotion(on bool) {
	d.hostPromote = on
}

// Deletions returns the journal of deletion calls in call order.
func (d *Driver) Deletions() []Deletion {
	return d.deletions
}

func (d *Driver) fail(op string) error {
	if err, ok := d.FailOps[op]; ok {
		return err
	}
	return nil
}

// VlanList enumerates the seeded VLAN table.
func (d *Driver) VlanList() ([]hal.VlanData, error) {
	if err := d.fail("vlan_list"); err != nil {
		return nil, err
	}
	out := make([]hal.VlanData, len(d.vlans))
	copy(out, d.vlans)
	return out, nil
}

// L3IntfFindByVlan looks up the interface bound to a VLAN.
func (d *Driver) L3IntfFindByVlan(vlan hal.VlanID) (*hal.L3Intf, error) {
	if err := d.fail("l3_intf_find"); err != nil {
		return nil, err
	}
	for i := range d.intfs {
		if d.intfs[i].Vlan == vlan {
			intf := d.intfs[i]
			return &intf, nil
		}
	}
	return nil, util.NewNotFoundError("l3 interface for vlan", fmt.Sprint(vlan))
}

// L2StationGet looks up the station entry for a VLAN.
func (d *Driver) L2StationGet(vlan hal.VlanID) (*hal.L2Station, error) {
	if err := d.fail("l2_station_get"); err != nil {
		return nil, err
	}
	s, ok := d.stations[vlan]
	if !ok {
		return nil, util.NewNotFoundError("l2 station for vlan", fmt.Sprint(vlan))
	}
	return &s, nil
}

// L3Info reports the seeded table capacities.
func (d *Driver) L3Info() (hal.L3Info, error) {
	if err := d.fail("l3_info"); err != nil {
		return hal.L3Info{}, err
	}
	return d.l3Info, nil
}

// L3HostTraverse walks seeded host entries of one family.
func (d *Driver) L3HostTraverse(family hal.Family, limit int, fn hal.HostTraverseFn) error {
	if err := d.fail("l3_host_traverse"); err != nil {
		return err
	}
	n := 0
	for _, h := range d.hosts {
		if h.V6 != (family == hal.FamilyV6) {
			continue
		}
		if n >= limit {
			break
		}
		n++
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

// L3RouteTraverse walks seeded route entries of one family.
func (d *Driver) L3RouteTraverse(family hal.Family, limit int, fn hal.RouteTraverseFn) error {
	if err := d.fail("l3_route_traverse"); err != nil {
		return err
	}
	n := 0
	for _, r := range d.routes {
		if r.V6 != (family == hal.FamilyV6) {
			continue
		}
		if n >= limit {
			break
		}
		n++
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// L3EgressTraverse walks seeded egress objects in seeding order.
func (d *Driver) L3EgressTraverse(fn hal.EgressTraverseFn) error {
	if err := d.fail("l3_egress_traverse"); err != nil {
		return err
	}
	for _, id := range d.egressOrder {
		if err := fn(id, d.egresses[id]); err != nil {
			return err
		}
	}
	return nil
}

// EcmpTraverse walks seeded ECMP groups in seeding order.
func (d *Driver) EcmpTraverse(fn hal.EcmpTraverseFn) error {
	if err := d.fail("ecmp_traverse"); err != nil {
		return err
	}
	for _, g := range d.ecmps {
		members := make([]hal.EgressID, len(d.ecmpPaths[g.EgressID]))
		copy(members, d.ecmpPaths[g.EgressID])
		if err := fn(g, members); err != nil {
			return err
		}
	}
	return nil
}

// L3RouteDelete journals and removes a route.
func (d *Driver) L3RouteDelete(route hal.L3Route) error {
	if err := d.fail("l3_route_delete"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "l3_route_delete", Key: route.Key()})
	for i := range d.routes {
		if d.routes[i].Key() == route.Key() {
			d.routes = append(d.routes[:i], d.routes[i+1:]...)
			break
		}
	}
	return nil
}

// L3HostDelete journals and removes a host entry.
func (d *Driver) L3HostDelete(host hal.L3Host) error {
	if err := d.fail("l3_host_delete"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "l3_host_delete", Key: host.Key()})
	for i := range d.hosts {
		if d.hosts[i].Key() == host.Key() {
			d.hosts = append(d.hosts[:i], d.hosts[i+1:]...)
			break
		}
	}
	return nil
}

// EcmpDestroy journals and removes an ECMP group.
func (d *Driver) EcmpDestroy(group hal.EcmpGroup) error {
	if err := d.fail("ecmp_destroy"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "ecmp_destroy", Key: fmt.Sprintf("ecmp %d", group.EgressID)})
	for i := range d.ecmps {
		if d.ecmps[i].EgressID == group.EgressID {
			d.ecmps = append(d.ecmps[:i], d.ecmps[i+1:]...)
			break
		}
	}
	delete(d.ecmpPaths, group.EgressID)
	return nil
}

// L3EgressDestroy journals and removes an egress object.
func (d *Driver) L3EgressDestroy(id hal.EgressID) error {
	if err := d.fail("l3_egress_destroy"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "l3_egress_destroy", Key: fmt.Sprintf("egress %d", id)})
	delete(d.egresses, id)
	for i := range d.egressOrder {
		if d.egressOrder[i] == id {
			d.egressOrder = append(d.egressOrder[:i], d.egressOrder[i+1:]...)
			break
		}
	}
	return nil
}

// L3IntfDelete journals and removes an L3 interface.
func (d *Driver) L3IntfDelete(intf hal.L3Intf) error {
	if err := d.fail("l3_intf_delete"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "l3_intf_delete", Key: fmt.Sprintf("intf vlan %d mac %s", intf.Vlan, intf.MAC)})
	for i := range d.intfs {
		if d.intfs[i].Vlan == intf.Vlan && d.intfs[i].MAC.String() == intf.MAC.String() {
			d.intfs = append(d.intfs[:i], d.intfs[i+1:]...)
			break
		}
	}
	return nil
}

// L2StationDelete journals and removes a station entry.
func (d *Driver) L2StationDelete(vlan hal.VlanID) error {
	if err := d.fail("l2_station_delete"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "l2_station_delete", Key: fmt.Sprintf("station vlan %d", vlan)})
	delete(d.stations, vlan)
	return nil
}

// VlanDestroy journals and removes a VLAN.
func (d *Driver) VlanDestroy(vlan hal.VlanID) error {
	if err := d.fail("vlan_destroy"); err != nil {
		return err
	}
	d.deletions = append(d.deletions, Deletion{Op: "vlan_destroy", Key: fmt.Sprintf("vlan %d", vlan)})
	for i := range d.vlans {
		if d.vlans[i].Vlan == vlan {
			d.vlans = append(d.vlans[:i], d.vlans[i+1:]...)
			break
		}
	}
	return nil
}

// DefaultVlan reports the seeded default VLAN.
func (d *Driver) DefaultVlan() (hal.VlanID, error) {
	if err := d.fail("vlan_default_get"); err != nil {
		return 0, err
	}
	return d.defaultVlan, nil
}

// CanUseHostTableForHostRoutes reports the seeded promotion setting.
func (d *Driver) CanUseHostTableForHostRoutes() bool {
	return d.hostPromote
}
