package warmboot

import (
	"errors"
	"fmt"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/snapshot"
	"github.com/newtron-network/warmboot/pkg/util"
)

// Populate discovers every live hardware forwarding object and fills the
// cache. snap may be nil on a cold boot; when present, its ECMP path map
// takes precedence over the hardware-reported ECMP membership (§ ECMP
// resolution below).
//
// Traversal order matters and is fixed:
//
//  1. VLANs, with their bound L3 interface and L2 station
//  2. IPv4 then IPv6 host tables
//  3. IPv4 then IPv6 route tables
//  4. egress objects (after hosts/routes, so the referenced-id scratch
//     set is complete)
//  5. ECMP groups (after egress objects, so member ids are known)
//
// Any unexpected driver error aborts with a HardwareError; invariant
// violations yield an InvariantError. Both mean the warm boot attempt
// cannot continue, but the decision to terminate belongs to the caller.
func (c *Cache) Populate(snap *snapshot.Snapshot) error {
	c.snap = snap
	if snap != nil && snap.EcmpPopulated() {
		c.ecmpPopulated = true
		for id, paths := range snap.EcmpPaths() {
			set := make(hal.EgressIDSet, len(paths))
			for p := range paths {
				set.Add(p)
			}
			c.ecmpPaths[id] = set
		}
	}

	if err := c.populateVlans(); err != nil {
		return err
	}

	l3Info, err := c.driver.L3Info()
	if err != nil {
		return util.NewHardwareError("l3_info", "platform", err)
	}

	if err := c.driver.L3HostTraverse(hal.FamilyV4, l3Info.MaxHosts, c.hostCallback); err != nil {
		return traverseError("l3_host_traverse", "v4 host table", err)
	}
	// The SDK convention for v6 capacity is half the host table
	if err := c.driver.L3HostTraverse(hal.FamilyV6, l3Info.MaxHosts/2, c.hostCallback); err != nil {
		return traverseError("l3_host_traverse", "v6 host table", err)
	}

	if err := c.driver.L3RouteTraverse(hal.FamilyV4, l3Info.MaxRoutes, c.routeCallback); err != nil {
		return traverseError("l3_route_traverse", "v4 route table", err)
	}
	if err := c.driver.L3RouteTraverse(hal.FamilyV6, l3Info.MaxRoutes/2, c.routeCallback); err != nil {
		return traverseError("l3_route_traverse", "v6 route table", err)
	}

	if err := c.driver.L3EgressTraverse(c.egressCallback); err != nil {
		return traverseError("l3_egress_traverse", "egress table", err)
	}

	if err := c.driver.EcmpTraverse(c.ecmpCallback); err != nil {
		return traverseError("ecmp_traverse", "ecmp table", err)
	}

	// The referenced-id set was only needed to classify egress objects.
	c.hostTableRefs = make(hal.EgressIDSet)

	s := c.Summarize()
	util.Infof("warm boot discovery: %d vlans, %d interfaces, %d stations, %d hosts, %d host routes, %d routes, %d egress objects, %d ecmp groups",
		s.Vlans, s.Interfaces, s.Stations, s.Hosts, s.HostRoutes, s.Routes, s.Egress, s.EcmpGroups)
	return nil
}

// traverseError keeps invariant violations raised inside callbacks typed
// as such; everything else becomes a hardware error.
func traverseError(op, object string, err error) error {
	if errors.Is(err, util.ErrInvariant) || errors.Is(err, util.ErrNotFound) {
		return err
	}
	return util.NewHardwareError(op, object, err)
}

func (c *Cache) populateVlans() error {
	vlans, err := c.driver.VlanList()
	if err != nil {
		return util.NewHardwareError("vlan_list", "vlan table", err)
	}
	for _, vd := range vlans {
		if _, dup := c.vlanInfo[vd.Vlan]; dup {
			return util.NewInvariantError("vlan-unique",
				fmt.Sprintf("vlan %d", vd.Vlan),
				"vlan enumerated twice")
		}
		untagged := vd.Untagged
		if untagged == nil {
			// SDK quirk: some platforms report untagged membership only
			// through the full bitmap.
			untagged = vd.Ports
		}
		util.WithVlan(vd.Vlan).Debugf("got vlan with %d ports", len(vd.Ports))
		info := VlanInfo{
			Vlan:     vd.Vlan,
			Untagged: untagged,
			AllPorts: vd.Ports,
		}

		// One L3 interface per VLAN is an assumption of the whole lookup
		// scheme. The uniqueness check above plus the single-result lookup
		// hold it here.
		intf, err := c.driver.L3IntfFindByVlan(vd.Vlan)
		switch {
		case err == nil:
			c.intfByVlanMac[intfKey(intf.Vlan, intf.MAC)] = *intf
			info.IntfID = intf.Intf
			util.WithVlan(vd.Vlan).Debug("found l3 interface for vlan")

			station, serr := c.driver.L2StationGet(vd.Vlan)
			if serr == nil {
				c.stationByVlan[vd.Vlan] = *station
				util.WithVlan(vd.Vlan).Debug("found l2 station for vlan")
			} else {
				// Observed hardware quirk: stations sometimes missing on
				// a warm boot. Not fatal.
				util.WithVlan(vd.Vlan).Warnf("could not get l2 station: %v", serr)
			}
		case errors.Is(err, util.ErrNotFound):
			// L2-only VLAN
		default:
			return util.NewHardwareError("l3_intf_find", fmt.Sprintf("vlan %d", vd.Vlan), err)
		}

		c.vlanInfo[vd.Vlan] = info
	}
	return nil
}

func (c *Cache) hostCallback(host hal.L3Host) error {
	c.hostByVrfIP[hostKey(host.VRF, host.IP)] = host
	c.hostTableRefs.Add(host.EgressID)
	util.WithEgress(host.EgressID).Debugf("adding egress id mapping for %s", host.Key())
	return nil
}

func (c *Cache) routeCallback(route hal.L3Route) error {
	fullMask := util.IsFullMask(route.Mask)
	if c.driver.CanUseHostTableForHostRoutes() && fullMask {
		// Full-mask route eligible for the host table / CAM.
		c.hostRouteByVrfIP[hostKey(route.VRF, route.Net)] = route
		util.Debugf("adding host route found in route table: %s", route.Key())
	} else {
		c.routeByVrfPrefix[routeKey(route.VRF, route.Net, route.Mask)] = route
		util.Debugf("adding route: %s", route.Key())
	}
	return nil
}

func (c *Cache) egressCallback(id hal.EgressID, egress hal.Egress) error {
	if _, dup := c.egress[id]; dup {
		return util.NewInvariantError("egress-id-unique",
			fmt.Sprintf("egress %d", id),
			"double traversal callback for same id")
	}
	if c.hostTableRefs.Has(id) {
		util.WithEgress(id).Debug("adding egress entry referenced by at least one host or route entry")
		c.egress[id] = &EgressEntry{Egress: egress}
		return nil
	}

	// An egress object no host entry references must be one of exactly
	// two singletons: the drop egress or the generic to-CPU egress.
	switch {
	case egress.Flags.IsDrop():
		if c.dropEgressID != hal.InvalidEgressID {
			return util.NewInvariantError("drop-egress-singleton",
				fmt.Sprintf("egress %d", id),
				fmt.Sprintf("drop egress already found at %d", c.dropEgressID))
		}
		util.WithEgress(id).Info("found drop egress id")
		c.dropEgressID = id
	case egress.Flags.IsToCPU():
		if c.toCPUEgressID != hal.InvalidEgressID {
			return util.NewInvariantError("tocpu-egress-singleton",
				fmt.Sprintf("egress %d", id),
				fmt.Sprintf("to-CPU egress already found at %d", c.toCPUEgressID))
		}
		util.WithEgress(id).Info("found generic to-CPU egress id")
		c.toCPUEgressID = id
	default:
		return util.NewInvariantError("egress-referenced",
			fmt.Sprintf("egress %d", id),
			fmt.Sprintf("not referenced by any host entry and no special-role flag (vlan %d intf %d flags %#x)",
				egress.Vlan, egress.Intf, uint32(egress.Flags)))
	}
	return nil
}

// ecmpCallback resolves one discovered ECMP group. The hardware-reported
// member list reflects only currently-up links; the persisted path map,
// when present, records the full intended membership and wins. A callback
// for an id with zero members and no persisted record is a known SDK
// artifact for double-wide group ids and is skipped outright.
func (c *Cache) ecmpCallback(group hal.EcmpGroup, members []hal.EgressID) error {
	var paths hal.EgressIDSet
	if c.ecmpPopulated {
		recorded, err := c.PathsForEcmp(group.EgressID)
		if err != nil {
			if len(members) == 0 {
				util.WithEgress(group.EgressID).Info("skipping ecmp callback for unused double-wide neighbor id")
				return nil
			}
			// A group with live members the snapshot cannot explain is a
			// real inconsistency.
			return err
		}
		paths = recorded
		if len(members) > 0 {
			util.WithEgress(group.EgressID).Infof("ignoring hardware-reported ecmp paths %s in favor of persisted %s",
				hal.NewEgressIDSet(members...), paths)
		}
	} else {
		if len(members) == 0 {
			util.WithEgress(group.EgressID).Info("skipping ecmp callback with no members and no persisted state")
			return nil
		}
		paths = hal.NewEgressIDSet(members...)
	}

	if len(paths) == 0 {
		if len(members) == 0 {
			// Exited with no ECMP entries recorded; same double-wide skip.
			util.WithEgress(group.EgressID).Info("skipping ecmp callback for unused double-wide neighbor id")
			return nil
		}
		return util.NewInvariantError("ecmp-paths-nonempty",
			fmt.Sprintf("ecmp %d", group.EgressID),
			"group resolved to an empty path set")
	}

	key := keyForPaths(paths)
	if _, dup := c.ecmpByPathSet[key]; dup {
		return util.NewInvariantError("ecmp-pathset-unique",
			fmt.Sprintf("ecmp %d", group.EgressID),
			fmt.Sprintf("duplicate discovery for path set %s", paths))
	}
	c.ecmpByPathSet[key] = &EcmpEntry{Group: group, Paths: paths}
	c.ecmpPaths[group.EgressID] = paths
	util.WithEgress(group.EgressID).Infof("added ecmp group pointing to egress ids %s", paths)
	return nil
}
