package state

import (
	"net"
	"testing"
)

func TestNeighborTable(t *testing.T) {
	table := NewNeighborTable()

	mac, _ := net.ParseMAC("02:00:00:00:00:01")
	table.AddEntry(net.ParseIP("10.0.0.5"), mac, 3, 5)
	table.AddPendingEntry(net.ParseIP("10.0.0.6"), 5)

	t.Run("resolved entry", func(t *testing.T) {
		e, ok := table.GetEntry(net.ParseIP("10.0.0.5"))
		if !ok {
			t.Fatal("entry for 10.0.0.5 not found")
		}
		if e.State != NeighborReachable {
			t.Errorf("state = %q, want reachable", e.State)
		}
		if e.MAC != "02:00:00:00:00:01" {
			t.Errorf("mac = %q", e.MAC)
		}
	})

	t.Run("pending entry", func(t *testing.T) {
		e, ok := table.GetEntry(net.ParseIP("10.0.0.6"))
		if !ok {
			t.Fatal("entry for 10.0.0.6 not found")
		}
		if e.State != NeighborPending {
			t.Errorf("state = %q, want pending", e.State)
		}
		if e.MAC != "" {
			t.Errorf("pending entry should have no MAC, got %q", e.MAC)
		}
	})

	t.Run("v4-mapped lookup", func(t *testing.T) {
		// Lookups must not care about v4 vs v4-in-v6 representation
		if _, ok := table.GetEntry(net.ParseIP("::ffff:10.0.0.5")); !ok {
			t.Error("v4-mapped form should find the same entry")
		}
	})

	t.Run("miss", func(t *testing.T) {
		if _, ok := table.GetEntry(net.ParseIP("10.9.9.9")); ok {
			t.Error("unexpected hit for absent IP")
		}
	})

	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}

	var nilTable *NeighborTable
	if nilTable.Len() != 0 {
		t.Error("nil table should have length 0")
	}
	if _, ok := nilTable.GetEntry(net.ParseIP("10.0.0.5")); ok {
		t.Error("nil table lookup should miss")
	}
}

func TestVlanAddPort(t *testing.T) {
	v := NewVlan(5)
	v.AddPort(1, false)
	v.AddPort(2, true)
	v.AddPort(1, true) // duplicate keeps original tagging

	if len(v.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(v.Members))
	}
	if v.Members[0].Tagged {
		t.Error("port 1 should stay untagged")
	}
	if !v.HasPort(2) || v.HasPort(9) {
		t.Error("HasPort membership wrong")
	}
}

func TestSwitchStateLookups(t *testing.T) {
	st := &SwitchState{}
	st.AddInterface(&Interface{ID: 5, VlanID: 5, Name: "fboss5", MTU: 9000})
	st.AddVlan(NewVlan(5))

	if intf, ok := st.InterfaceByVlan(5); !ok || intf.Name != "fboss5" {
		t.Errorf("InterfaceByVlan(5) = %+v, %v", intf, ok)
	}
	if _, ok := st.InterfaceByVlan(7); ok {
		t.Error("unexpected interface for vlan 7")
	}
	if intf, ok := st.Interface(5); !ok || intf.VlanID != 5 {
		t.Errorf("Interface(5) = %+v, %v", intf, ok)
	}
	if _, ok := st.Vlan(5); !ok {
		t.Error("Vlan(5) not found")
	}
	if _, ok := st.Vlan(6); ok {
		t.Error("unexpected vlan 6")
	}
}
