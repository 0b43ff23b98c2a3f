package warmboot

import (
	"fmt"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/util"
)

// teardownStage is one step of the garbage collection pass.
type teardownStage struct {
	name  string
	sweep func(*Cache) error
}

// teardownStages is the declared deletion order. It follows the hardware
// reference graph: an object may only be deleted once everything that can
// reference it is gone.
//
//	routes        -> egress objects, ecmp groups
//	host routes   -> egress objects, ecmp groups
//	hosts         -> egress objects, ecmp groups
//	ecmp groups   -> egress objects
//	egress objects-> interfaces
//	interfaces, stations, vlans -> (nothing)
var teardownStages = []teardownStage{
	{"prefix-routes", (*Cache).sweepPrefixRoutes},
	{"host-routes", (*Cache).sweepHostRoutes},
	{"hosts", (*Cache).sweepHosts},
	{"ecmp-groups", (*Cache).sweepEcmp},
	{"egress-objects", (*Cache).sweepEgress},
	{"interfaces", (*Cache).sweepInterfaces},
	{"stations", (*Cache).sweepStations},
	{"vlans", (*Cache).sweepVlans},
}

// TeardownOrder returns the declared stage names in sweep order. The
// order is a contract; tests assert on it directly.
func TeardownOrder() []string {
	names := make([]string, len(teardownStages))
	for i, s := range teardownStages {
		names[i] = s.name
	}
	return names
}

// Clear deletes every object left unclaimed, in declared stage order, and
// empties the cache. A deletion the driver reports as failed aborts
// immediately with a HardwareError: at this point in the lifecycle there
// is no recovery path, and the caller is expected to terminate rather
// than continue with hardware in an unknown state.
func (c *Cache) Clear() error {
	util.Info("warm boot: removing unreferenced entries")
	c.snap = nil
	c.ecmpPaths = make(map[hal.EgressID]hal.EgressIDSet)

	for _, stage := range teardownStages {
		if err := stage.sweep(c); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) sweepPrefixRoutes() error {
	log := util.WithStage("prefix-routes")
	for key, route := range c.routeByVrfPrefix {
		log.Infof("deleting unreferenced route in vrf %d for %s/%s", key.VRF, key.Prefix, key.Mask)
		if err := c.driver.L3RouteDelete(route); err != nil {
			return util.NewHardwareError("l3_route_delete", route.Key(), err)
		}
	}
	c.routeByVrfPrefix = make(map[VrfPrefixKey]hal.L3Route)
	return nil
}

func (c *Cache) sweepHostRoutes() error {
	log := util.WithStage("host-routes")
	for key, route := range c.hostRouteByVrfIP {
		log.Infof("deleting fully qualified unreferenced route in vrf %d for %s", key.VRF, key.IP)
		if err := c.driver.L3RouteDelete(route); err != nil {
			return util.NewHardwareError("l3_route_delete", route.Key(), err)
		}
	}
	c.hostRouteByVrfIP = make(map[VrfIPKey]hal.L3Route)
	return nil
}

func (c *Cache) sweepHosts() error {
	log := util.WithStage("hosts")
	for key, host := range c.hostByVrfIP {
		log.Infof("deleting unreferenced host entry in vrf %d for %s", key.VRF, key.IP)
		if err := c.driver.L3HostDelete(host); err != nil {
			return util.NewHardwareError("l3_host_delete", host.Key(), err)
		}
	}
	c.hostByVrfIP = make(map[VrfIPKey]hal.L3Host)
	return nil
}

func (c *Cache) sweepEcmp() error {
	log := util.WithStage("ecmp-groups")
	for _, entry := range c.ecmpByPathSet {
		log.Infof("deleting unreferenced ecmp group %d pointing to %s", entry.Group.EgressID, entry.Paths)
		if err := c.driver.EcmpDestroy(entry.Group); err != nil {
			return util.NewHardwareError("ecmp_destroy", entry.Paths.String(), err)
		}
	}
	c.ecmpByPathSet = make(map[pathSetKey]*EcmpEntry)
	return nil
}

func (c *Cache) sweepEgress() error {
	log := util.WithStage("egress-objects")
	for id, entry := range c.egress {
		if entry.Claimed {
			continue
		}
		log.Infof("deleting unclaimed egress object %d", id)
		if err := c.driver.L3EgressDestroy(id); err != nil {
			return util.NewHardwareError("l3_egress_destroy", fmt.Sprintf("egress %d", id), err)
		}
	}
	c.egress = make(map[hal.EgressID]*EgressEntry)
	return nil
}

func (c *Cache) sweepInterfaces() error {
	log := util.WithStage("interfaces")
	for key, intf := range c.intfByVlanMac {
		log.Infof("deleting unreferenced l3 interface for vlan %d mac %s", key.Vlan, key.MAC)
		if err := c.driver.L3IntfDelete(intf); err != nil {
			return util.NewHardwareError("l3_intf_delete", key.MAC, err)
		}
	}
	c.intfByVlanMac = make(map[VlanMacKey]hal.L3Intf)
	return nil
}

func (c *Cache) sweepStations() error {
	log := util.WithStage("stations")
	for vlan := range c.stationByVlan {
		log.Infof("deleting unreferenced l2 station for vlan %d", vlan)
		if err := c.driver.L2StationDelete(vlan); err != nil {
			return util.NewHardwareError("l2_station_delete", fmt.Sprintf("vlan %d", vlan), err)
		}
	}
	c.stationByVlan = make(map[hal.VlanID]hal.L2Station)
	return nil
}

// sweepVlans deletes every unclaimed VLAN except the hardware's default
// VLAN, which can never be deleted.
func (c *Cache) sweepVlans() error {
	log := util.WithStage("vlans")
	defaultVlan, err := c.driver.DefaultVlan()
	if err != nil {
		return util.NewHardwareError("vlan_default_get", "default vlan", err)
	}
	for vlan := range c.vlanInfo {
		if vlan == defaultVlan {
			continue
		}
		log.Infof("deleting unreferenced vlan %d", vlan)
		if err := c.driver.VlanDestroy(vlan); err != nil {
			return util.NewHardwareError("vlan_destroy", fmt.Sprintf("vlan %d", vlan), err)
		}
		delete(c.vlanInfo, vlan)
	}
	return nil
}
