package warmboot

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/hal/sim"
	"github.com/newtron-network/warmboot/pkg/snapshot"
	"github.com/newtron-network/warmboot/pkg/state"
	"github.com/newtron-network/warmboot/pkg/util"
)

func mac(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	m, err := net.ParseMAC(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// newTestDriver seeds the simulated hardware with a small complete
// topology: the default VLAN, one routed VLAN with interface and station,
// v4 and v6 neighbors, a prefix route, a full-mask route, the two special
// egress singletons and one ECMP group.
func newTestDriver(t *testing.T) *sim.Driver {
	t.Helper()
	d := sim.New()

	d.AddVlan(hal.VlanData{Vlan: 1, Ports: hal.NewPortBitmap(9)})
	d.AddVlan(hal.VlanData{Vlan: 5, Ports: hal.NewPortBitmap(1, 2, 3), Untagged: hal.NewPortBitmap(1, 2)})
	d.AddIntf(hal.L3Intf{Intf: 5, Vlan: 5, MAC: mac(t, "02:00:00:00:00:05"), VRF: 0, MTU: 9000})
	d.AddStation(hal.L2Station{Vlan: 5, MAC: mac(t, "02:00:00:00:00:05")})

	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("10.0.0.5"), EgressID: 100001})
	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("10.0.0.6"), EgressID: 100002})
	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("2001:db8::5"), V6: true, EgressID: 100001})

	d.AddRoute(hal.L3Route{VRF: 0, Net: net.ParseIP("10.1.0.0"), Mask: util.MaskFromLen(24, false), EgressID: 100001})
	d.AddRoute(hal.L3Route{VRF: 0, Net: net.ParseIP("10.0.0.7"), Mask: util.FullMaskV4(), EgressID: 100002})

	d.AddEgress(100001, hal.Egress{Vlan: 5, Intf: 5, MAC: mac(t, "02:00:00:00:00:aa"), Port: 1})
	d.AddEgress(100002, hal.Egress{Vlan: 5, Intf: 5, MAC: mac(t, "02:00:00:00:00:bb"), Port: 2})
	d.AddEgress(100010, hal.Egress{Flags: hal.FlagDrop})
	d.AddEgress(100011, hal.Egress{Flags: hal.FlagL2ToCPU})

	d.AddEcmp(hal.EcmpGroup{EgressID: 200256}, []hal.EgressID{100001, 100002})
	return d
}

// makeSnapshot writes and reloads a snapshot so tests exercise the same
// decode path production does.
func makeSnapshot(t *testing.T, sw *state.SwitchState, ecmp *snapshot.EcmpState) *snapshot.Snapshot {
	t.Helper()
	data, err := snapshot.Compose(sw, ecmp)
	if err != nil {
		t.Fatal(err)
	}
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "switch_state.json"))
	if err := store.Write(data); err != nil {
		t.Fatal(err)
	}
	snap, err := snapshot.Load(store)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestPopulateCounts(t *testing.T) {
	c := New(newTestDriver(t))
	if err := c.Populate(nil); err != nil {
		t.Fatalf("Populate failed: %v", err)
	}

	want := Summary{
		Vlans:      2,
		Interfaces: 1,
		Stations:   1,
		Hosts:      3,
		HostRoutes: 1,
		Routes:     1,
		Egress:     2,
		EcmpGroups: 1,
	}
	if diff := cmp.Diff(want, c.Summarize()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	if c.DropEgressID() != 100010 {
		t.Errorf("drop egress id = %d, want 100010", c.DropEgressID())
	}
	if c.ToCPUEgressID() != 100011 {
		t.Errorf("to-CPU egress id = %d, want 100011", c.ToCPUEgressID())
	}
}

func TestRouteClassification(t *testing.T) {
	fullMask := util.FullMaskV4()

	t.Run("promotion on", func(t *testing.T) {
		c := New(newTestDriver(t))
		if err := c.Populate(nil); err != nil {
			t.Fatal(err)
		}
		if _, ok := c.FindHostRoute(0, net.ParseIP("10.0.0.7")); !ok {
			t.Error("full-mask route should land in the host route table")
		}
		if _, ok := c.FindRoute(0, net.ParseIP("10.0.0.7"), fullMask); ok {
			t.Error("full-mask route should not land in the prefix table")
		}
		if _, ok := c.FindRoute(0, net.ParseIP("10.1.0.0"), util.MaskFromLen(24, false)); !ok {
			t.Error("prefix route missing")
		}
	})

	t.Run("promotion off", func(t *testing.T) {
		d := newTestDriver(t)
		d.SetHostRoutePromotion(false)
		c := New(d)
		if err := c.Populate(nil); err != nil {
			t.Fatal(err)
		}
		if _, ok := c.FindHostRoute(0, net.ParseIP("10.0.0.7")); ok {
			t.Error("host route table should be empty without promotion")
		}
		if _, ok := c.FindRoute(0, net.ParseIP("10.0.0.7"), fullMask); !ok {
			t.Error("full-mask route should land in the prefix table")
		}
	})
}

func TestPopulateInvariantViolations(t *testing.T) {
	checkFor := func(t *testing.T, err error, check string) {
		t.Helper()
		if !errors.Is(err, util.ErrInvariant) {
			t.Fatalf("want ErrInvariant, got %v", err)
		}
		var inv *util.InvariantError
		if !errors.As(err, &inv) {
			t.Fatalf("error is not an InvariantError: %v", err)
		}
		if inv.Check != check {
			t.Errorf("check = %q, want %q", inv.Check, check)
		}
	}

	t.Run("vlan enumerated twice", func(t *testing.T) {
		d := newTestDriver(t)
		d.AddVlan(hal.VlanData{Vlan: 5, Ports: hal.NewPortBitmap(1)})
		checkFor(t, New(d).Populate(nil), "vlan-unique")
	})

	t.Run("duplicate egress id", func(t *testing.T) {
		d := newTestDriver(t)
		d.AddEgress(100001, hal.Egress{Vlan: 5})
		checkFor(t, New(d).Populate(nil), "egress-id-unique")
	})

	t.Run("unexplained unreferenced egress", func(t *testing.T) {
		d := newTestDriver(t)
		d.AddEgress(100099, hal.Egress{Vlan: 5, Port: 3})
		checkFor(t, New(d).Populate(nil), "egress-referenced")
	})

	t.Run("second drop egress", func(t *testing.T) {
		d := newTestDriver(t)
		d.AddEgress(100012, hal.Egress{Flags: hal.FlagDrop})
		checkFor(t, New(d).Populate(nil), "drop-egress-singleton")
	})

	t.Run("second to-cpu egress", func(t *testing.T) {
		d := newTestDriver(t)
		d.AddEgress(100013, hal.Egress{Flags: hal.FlagCopyToCPU})
		checkFor(t, New(d).Populate(nil), "tocpu-egress-singleton")
	})
}

func TestPopulateHardwareFailure(t *testing.T) {
	for _, op := range []string{"vlan_list", "l3_info", "l3_host_traverse", "l3_route_traverse", "l3_egress_traverse", "ecmp_traverse"} {
		t.Run(op, func(t *testing.T) {
			d := newTestDriver(t)
			d.FailOps[op] = errors.New("unit 0: internal error")
			err := New(d).Populate(nil)
			if !errors.Is(err, util.ErrHardware) {
				t.Errorf("want ErrHardware, got %v", err)
			}
		})
	}
}

func TestPopulateIntfLookupFailure(t *testing.T) {
	// A driver error other than not-found while resolving a VLAN's
	// interface is fatal; not-found just means an L2-only VLAN.
	d := newTestDriver(t)
	d.FailOps["l3_intf_find"] = errors.New("unit 0: internal error")
	if err := New(d).Populate(nil); !errors.Is(err, util.ErrHardware) {
		t.Errorf("want ErrHardware, got %v", err)
	}
}

func TestPopulateMissingStationIsNotFatal(t *testing.T) {
	d := newTestDriver(t)
	d.FailOps["l2_station_get"] = util.NewNotFoundError("l2 station for vlan", "5")
	c := New(d)
	if err := c.Populate(nil); err != nil {
		t.Fatalf("missing station should not fail discovery: %v", err)
	}
	if c.Summarize().Stations != 0 {
		t.Error("station table should be empty")
	}
}
