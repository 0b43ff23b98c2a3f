package warmboot

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/hal/sim"
	"github.com/newtron-network/warmboot/pkg/state"
	"github.com/newtron-network/warmboot/pkg/util"
)

// reconstructDriver extends the base topology with the host table corner
// cases reconstruction has to handle:
//
//	10.0.0.8 -> normal egress, but unknown to the prior software state
//	10.0.0.9 -> drop egress (neighbor expired while we were down)
//	10.3.0.1 -> vlan-0 egress (punt to CPU, not a real neighbor)
func reconstructDriver(t *testing.T) *sim.Driver {
	t.Helper()
	d := newTestDriver(t)
	d.AddEgress(100003, hal.Egress{Vlan: 5, Intf: 5, MAC: mac(t, "02:00:00:00:00:cc"), Port: 3})
	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("10.0.0.8"), EgressID: 100003})
	d.AddEgress(100004, hal.Egress{Vlan: 5, Intf: 5, Flags: hal.FlagDrop})
	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("10.0.0.9"), EgressID: 100004})
	d.AddEgress(100005, hal.Egress{Vlan: 0})
	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("10.3.0.1"), EgressID: 100005})
	return d
}

// dumpedState is the prior software state matching reconstructDriver: it
// knows the interface on VLAN 5 and the neighbors 10.0.0.5, 10.0.0.9 and
// 2001:db8::5, but not 10.0.0.6 or 10.0.0.8.
func dumpedState(t *testing.T) *state.SwitchState {
	t.Helper()
	sw := &state.SwitchState{}
	sw.AddInterface(&state.Interface{
		ID:        5,
		VRF:       0,
		VlanID:    5,
		Name:      "fboss5",
		MAC:       "02:00:00:00:00:05",
		MTU:       9000,
		Addresses: []string{"10.0.0.1/24"},
	})
	v := state.NewVlan(5)
	v.ArpTable.AddEntry(net.ParseIP("10.0.0.5"), mac(t, "02:00:00:00:00:aa"), 1, 5)
	v.ArpTable.AddEntry(net.ParseIP("10.0.0.9"), mac(t, "02:00:00:00:00:dd"), 3, 5)
	v.NdpTable.AddEntry(net.ParseIP("2001:db8::5"), mac(t, "02:00:00:00:00:aa"), 1, 5)
	sw.AddVlan(v)
	return sw
}

func TestReconstructInterfaces(t *testing.T) {
	c := New(reconstructDriver(t))
	if err := c.Populate(makeSnapshot(t, dumpedState(t), nil)); err != nil {
		t.Fatal(err)
	}

	intfs, err := c.ReconstructInterfaces()
	if err != nil {
		t.Fatalf("ReconstructInterfaces failed: %v", err)
	}
	if len(intfs) != 1 {
		t.Fatalf("got %d interfaces, want 1", len(intfs))
	}

	want := &state.Interface{
		ID:        5,
		VRF:       0,
		VlanID:    5,
		Name:      "fboss5",
		MAC:       "02:00:00:00:00:05",
		MTU:       9000,
		Addresses: []string{"10.0.0.1/24"},
	}
	if diff := cmp.Diff(want, intfs[0]); diff != "" {
		t.Errorf("interface mismatch (-want +got):\n%s", diff)
	}
}

func TestReconstructInterfaceUnknownToSnapshot(t *testing.T) {
	// Hardware has an interface on VLAN 5 the prior software state never
	// heard of. The prior state must explain everything in hardware.
	c := New(reconstructDriver(t))
	if err := c.Populate(makeSnapshot(t, &state.SwitchState{}, nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReconstructInterfaces(); !errors.Is(err, util.ErrInvariant) {
		t.Errorf("want ErrInvariant, got %v", err)
	}
}

func TestReconstructRequiresSnapshot(t *testing.T) {
	c := New(reconstructDriver(t))
	if err := c.Populate(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReconstructInterfaces(); !errors.Is(err, util.ErrInvariant) {
		t.Errorf("ReconstructInterfaces: want ErrInvariant, got %v", err)
	}
	if _, err := c.ReconstructVlans(); !errors.Is(err, util.ErrInvariant) {
		t.Errorf("ReconstructVlans: want ErrInvariant, got %v", err)
	}
}

func TestReconstructVlans(t *testing.T) {
	c := New(reconstructDriver(t))
	if err := c.Populate(makeSnapshot(t, dumpedState(t), nil)); err != nil {
		t.Fatal(err)
	}

	vlans, err := c.ReconstructVlans()
	if err != nil {
		t.Fatalf("ReconstructVlans failed: %v", err)
	}
	if len(vlans) != 2 {
		t.Fatalf("got %d vlans, want 2", len(vlans))
	}

	var v5 *state.Vlan
	for _, v := range vlans {
		if v.ID == 5 {
			v5 = v
		}
	}
	if v5 == nil {
		t.Fatal("vlan 5 not reconstructed")
	}

	if v5.InterfaceID != 5 {
		t.Errorf("interface id = %d, want 5", v5.InterfaceID)
	}
	wantPorts := []state.MemberPort{
		{Port: 1, Tagged: false},
		{Port: 2, Tagged: false},
		{Port: 3, Tagged: true},
	}
	if diff := cmp.Diff(wantPorts, v5.Members); diff != "" {
		t.Errorf("member ports mismatch (-want +got):\n%s", diff)
	}

	t.Run("known neighbor promoted", func(t *testing.T) {
		e, ok := v5.ArpTable.GetEntry(net.ParseIP("10.0.0.5"))
		if !ok {
			t.Fatal("10.0.0.5 missing from reconstructed arp table")
		}
		if e.State != state.NeighborReachable || e.MAC != "02:00:00:00:00:aa" || e.Port != 1 {
			t.Errorf("entry = %+v", e)
		}
	})

	t.Run("drop egress becomes pending", func(t *testing.T) {
		e, ok := v5.ArpTable.GetEntry(net.ParseIP("10.0.0.9"))
		if !ok {
			t.Fatal("10.0.0.9 missing from reconstructed arp table")
		}
		if e.State != state.NeighborPending {
			t.Errorf("state = %q, want pending", e.State)
		}
		if e.MAC != "" {
			t.Errorf("pending entry should carry no MAC, got %q", e.MAC)
		}
	})

	t.Run("ndp neighbor promoted", func(t *testing.T) {
		if _, ok := v5.NdpTable.GetEntry(net.ParseIP("2001:db8::5")); !ok {
			t.Error("2001:db8::5 missing from reconstructed ndp table")
		}
	})

	t.Run("unknown neighbors filtered", func(t *testing.T) {
		// 10.0.0.6 and 10.0.0.8 have live host entries but the prior
		// software state never knew them as neighbors; they stay out.
		for _, ip := range []string{"10.0.0.6", "10.0.0.8"} {
			if _, ok := v5.ArpTable.GetEntry(net.ParseIP(ip)); ok {
				t.Errorf("%s should have been filtered out", ip)
			}
		}
	})

	t.Run("cpu punt entry skipped", func(t *testing.T) {
		for _, v := range vlans {
			if _, ok := v.ArpTable.GetEntry(net.ParseIP("10.3.0.1")); ok {
				t.Errorf("vlan-0 host entry surfaced on vlan %d", v.ID)
			}
		}
	})
}

func TestReconstructVlanNeverDiscovered(t *testing.T) {
	// A host entry resolving to a VLAN that hardware discovery never
	// enumerated means the two tables disagree.
	d := newTestDriver(t)
	d.AddEgress(100006, hal.Egress{Vlan: 7, Intf: 7, MAC: mac(t, "02:00:00:00:00:ee"), Port: 4})
	d.AddHost(hal.L3Host{VRF: 0, IP: net.ParseIP("10.7.0.1"), EgressID: 100006})

	sw := dumpedState(t)
	v7 := state.NewVlan(7)
	v7.ArpTable.AddEntry(net.ParseIP("10.7.0.1"), mac(t, "02:00:00:00:00:ee"), 4, 7)
	sw.AddVlan(v7)

	c := New(d)
	if err := c.Populate(makeSnapshot(t, sw, nil)); err != nil {
		t.Fatal(err)
	}
	_, err := c.ReconstructVlans()
	if !errors.Is(err, util.ErrInvariant) {
		t.Errorf("want ErrInvariant, got %v", err)
	}
}
