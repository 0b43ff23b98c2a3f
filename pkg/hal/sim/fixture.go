package sim

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/util"
)

// Fixture describes a simulated hardware configuration in YAML, for
// seeding a Driver from a file (warmbootctl simulate, test data).
type Fixture struct {
	DefaultVlan        uint16 `yaml:"default_vlan"`
	HostRoutePromotion *bool  `yaml:"host_route_promotion"`

	Vlans []struct {
		ID       uint16   `yaml:"id"`
		Ports    []uint16 `yaml:"ports"`
		Untagged []uint16 `yaml:"untagged"`
	} `yaml:"vlans"`

	Intfs []struct {
		Intf int32  `yaml:"intf"`
		Vlan uint16 `yaml:"vlan"`
		MAC  string `yaml:"mac"`
		VRF  int32  `yaml:"vrf"`
		MTU  int    `yaml:"mtu"`
	} `yaml:"intfs"`

	Stations []struct {
		Vlan uint16 `yaml:"vlan"`
		MAC  string `yaml:"mac"`
	} `yaml:"stations"`

	Hosts []struct {
		VRF    int32  `yaml:"vrf"`
		IP     string `yaml:"ip"`
		Egress int32  `yaml:"egress"`
	} `yaml:"hosts"`

	Routes []struct {
		VRF     int32  `yaml:"vrf"`
		Net     string `yaml:"net"`
		MaskLen int    `yaml:"mask_len"`
		Egress  int32  `yaml:"egress"`
		ECMP    bool   `yaml:"ecmp"`
	} `yaml:"routes"`

	Egress []struct {
		ID    int32    `yaml:"id"`
		Vlan  uint16   `yaml:"vlan"`
		Intf  int32    `yaml:"intf"`
		MAC   string   `yaml:"mac"`
		Port  uint16   `yaml:"port"`
		Flags []string `yaml:"flags"` // drop, l2tocpu, copytocpu
	} `yaml:"egress"`

	Ecmp []struct {
		ID      int32   `yaml:"id"`
		Members []int32 `yaml:"members"`
	} `yaml:"ecmp"`
}

// LoadFixture reads a YAML fixture and builds a seeded Driver from it.
func LoadFixture(path string) (*Driver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return f.Build()
}

// Build seeds a Driver from the fixture.
func (f *Fixture) Build() (*Driver, error) {
	d := New()
	if f.DefaultVlan != 0 {
		d.SetDefaultVlan(hal.VlanID(f.DefaultVlan))
	}
	if f.HostRoutePromotion != nil {
		d.SetHostRoutePromotion(*f.HostRoutePromotion)
	}

	for _, v := range f.Vlans {
		vd := hal.VlanData{
			Vlan:  hal.VlanID(v.ID),
			Ports: hal.NewPortBitmap(),
		}
		for _, p := range v.Ports {
			vd.Ports.Add(hal.PortID(p))
		}
		if len(v.Untagged) > 0 {
			vd.Untagged = hal.NewPortBitmap()
			for _, p := range v.Untagged {
				vd.Untagged.Add(hal.PortID(p))
			}
		}
		d.AddVlan(vd)
	}

	for _, i := range f.Intfs {
		mac, err := net.ParseMAC(i.MAC)
		if err != nil {
			return nil, fmt.Errorf("intf for vlan %d: %w", i.Vlan, err)
		}
		d.AddIntf(hal.L3Intf{
			Intf: hal.IntfID(i.Intf),
			Vlan: hal.VlanID(i.Vlan),
			MAC:  mac,
			VRF:  hal.VRF(i.VRF),
			MTU:  i.MTU,
		})
	}

	for _, s := range f.Stations {
		mac, err := net.ParseMAC(s.MAC)
		if err != nil {
			return nil, fmt.Errorf("station for vlan %d: %w", s.Vlan, err)
		}
		d.AddStation(hal.L2Station{Vlan: hal.VlanID(s.Vlan), MAC: mac})
	}

	for _, h := range f.Hosts {
		ip := net.ParseIP(h.IP)
		if ip == nil {
			return nil, fmt.Errorf("host %q: invalid ip", h.IP)
		}
		d.AddHost(hal.L3Host{
			VRF:      hal.VRF(h.VRF),
			IP:       ip,
			V6:       !util.IsV4(ip),
			EgressID: hal.EgressID(h.Egress),
		})
	}

	for _, r := range f.Routes {
		ip := net.ParseIP(r.Net)
		if ip == nil {
			return nil, fmt.Errorf("route %q: invalid net", r.Net)
		}
		v6 := !util.IsV4(ip)
		d.AddRoute(hal.L3Route{
			VRF:      hal.VRF(r.VRF),
			Net:      ip,
			Mask:     util.MaskFromLen(r.MaskLen, v6),
			V6:       v6,
			EgressID: hal.EgressID(r.Egress),
			ECMP:     r.ECMP,
		})
	}

	for _, e := range f.Egress {
		var flags hal.EgressFlags
		for _, name := range e.Flags {
			switch name {
			case "drop":
				flags |= hal.FlagDrop
			case "l2tocpu":
				flags |= hal.FlagL2ToCPU
			case "copytocpu":
				flags |= hal.FlagCopyToCPU
			default:
				return nil, fmt.Errorf("egress %d: unknown flag %q", e.ID, name)
			}
		}
		var mac net.HardwareAddr
		if e.MAC != "" {
			var err error
			if mac, err = net.ParseMAC(e.MAC); err != nil {
				return nil, fmt.Errorf("egress %d: %w", e.ID, err)
			}
		}
		d.AddEgress(hal.EgressID(e.ID), hal.Egress{
			Vlan:  hal.VlanID(e.Vlan),
			Intf:  hal.IntfID(e.Intf),
			MAC:   mac,
			Port:  hal.PortID(e.Port),
			Flags: flags,
		})
	}

	for _, g := range f.Ecmp {
		members := make([]hal.EgressID, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, hal.EgressID(m))
		}
		d.AddEcmp(hal.EcmpGroup{EgressID: hal.EgressID(g.ID)}, members)
	}

	return d, nil
}
