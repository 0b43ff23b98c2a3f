// Package snapshot reads and writes the persisted warm boot state: the
// software switch state dumped by the previous process instance, plus the
// ECMP membership table, which is the one piece of hardware state not
// fully recoverable from the ASIC after a restart (links that were down at
// shutdown are missing from the hardware report).
package snapshot

import (
	"sort"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/state"
)

// fileFormat is the on-disk snapshot layout.
//
// hw_state is absent in snapshots written before ECMP membership dumping
// existed; that is a valid legacy format, not an error.
type fileFormat struct {
	SwState *state.SwitchState `json:"sw_state"`
	HwState *hwState           `json:"hw_state,omitempty"`
}

type hwState struct {
	HostTable     *hostTable `json:"host_table,omitempty"`
	WarmBootCache *EcmpState `json:"warm_boot_cache,omitempty"`
}

type hostTable struct {
	EcmpHosts []EcmpEntry `json:"ecmp_hosts"`
}

// EcmpEntry records the full intended membership of one ECMP group as of
// the last shutdown.
type EcmpEntry struct {
	EgressID hal.EgressID   `json:"egress_id"`
	Paths    []hal.EgressID `json:"paths"`
}

// EcmpState is the fragment this core persists for the next warm boot:
// the ECMP membership table and nothing else.
type EcmpState struct {
	EcmpObjects []EcmpEntry `json:"ecmp_objects"`
}

// EcmpStateFromPaths builds a deterministic (sorted) EcmpState from a
// path map.
func EcmpStateFromPaths(paths map[hal.EgressID]hal.EgressIDSet) *EcmpState {
	st := &EcmpState{EcmpObjects: []EcmpEntry{}}
	ids := make([]hal.EgressID, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		st.EcmpObjects = append(st.EcmpObjects, EcmpEntry{
			EgressID: id,
			Paths:    paths[id].Sorted(),
		})
	}
	return st
}
