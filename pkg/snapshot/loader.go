package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/newtron-network/warmboot/pkg/hal"
	"github.com/newtron-network/warmboot/pkg/state"
	"github.com/newtron-network/warmboot/pkg/util"
)

// Snapshot is a decoded persisted snapshot: the prior software state tree
// plus, when the writing version recorded it, the per-group ECMP path map.
type Snapshot struct {
	SwState *state.SwitchState

	ecmpPaths     map[hal.EgressID]hal.EgressIDSet
	ecmpPopulated bool
}

// EcmpPopulated reports whether the snapshot carried ECMP membership data.
// False means an older snapshot format; discovery falls back to the
// hardware-reported member lists.
func (s *Snapshot) EcmpPopulated() bool {
	return s.ecmpPopulated
}

// EcmpPaths returns the persisted path map (nil when not populated).
func (s *Snapshot) EcmpPaths() map[hal.EgressID]hal.EgressIDSet {
	return s.ecmpPaths
}

// Load reads and decodes a snapshot. The software state is required:
// the control process cannot safely reconcile without its own prior state,
// so a missing or undecodable snapshot is an error wrapping
// util.ErrSnapshotCorrupt. Missing hardware state is valid (legacy
// format) and only disables persisted ECMP recovery.
func Load(store Store) (*Snapshot, error) {
	data, err := store.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", util.ErrSnapshotCorrupt, store.Name(), err)
	}

	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", util.ErrSnapshotCorrupt, store.Name(), err)
	}
	if raw.SwState == nil {
		return nil, fmt.Errorf("%w: %s has no software state", util.ErrSnapshotCorrupt, store.Name())
	}

	snap := &Snapshot{SwState: raw.SwState}

	if raw.HwState == nil {
		util.Infof("snapshot %s has no hardware state, skipping ECMP path map reconstruction", store.Name())
		return snap, nil
	}

	snap.ecmpPopulated = true
	snap.ecmpPaths = make(map[hal.EgressID]hal.EgressIDSet)

	// ECMP membership recorded with the dumped host table. An INVALID id
	// here means the host entry was not an ECMP host, skip it.
	if raw.HwState.HostTable != nil {
		for _, entry := range raw.HwState.HostTable.EcmpHosts {
			if entry.EgressID == hal.InvalidEgressID {
				continue
			}
			mergePaths(snap.ecmpPaths, entry)
		}
	}

	// ECMP membership recorded by the previous warm boot cache itself.
	// We may have shut down before a FIB sync, so this can hold groups the
	// host table dump does not. An INVALID id here is a corrupt record.
	if raw.HwState.WarmBootCache != nil {
		for _, entry := range raw.HwState.WarmBootCache.EcmpObjects {
			if entry.EgressID == hal.InvalidEgressID {
				return nil, util.NewInvariantError("ecmp-id-valid",
					"persisted warm boot cache entry",
					"ecmp object recorded with invalid egress id")
			}
			mergePaths(snap.ecmpPaths, entry)
		}
	}

	for id, paths := range snap.ecmpPaths {
		util.WithEgress(id).Debugf("reconstructed ecmp paths from snapshot: %s", paths)
	}
	return snap, nil
}

func mergePaths(into map[hal.EgressID]hal.EgressIDSet, entry EcmpEntry) {
	set, ok := into[entry.EgressID]
	if !ok {
		set = make(hal.EgressIDSet)
		into[entry.EgressID] = set
	}
	for _, p := range entry.Paths {
		set.Add(p)
	}
}

// SaveEcmp writes the ECMP membership fragment for the next warm boot.
func SaveEcmp(store Store, st *EcmpState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding ecmp state: %w", err)
	}
	if err := store.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", store.Name(), err)
	}
	return nil
}

// LoadEcmp reads back an EcmpState fragment written by SaveEcmp, for
// composing the next boot's snapshot.
func LoadEcmp(store Store) (*EcmpState, error) {
	data, err := store.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", store.Name(), err)
	}
	var st EcmpState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", store.Name(), err)
	}
	return &st, nil
}

// Compose builds full snapshot bytes from a software state tree and an
// optional ECMP fragment, for writing at shutdown.
func Compose(sw *state.SwitchState, ecmp *EcmpState) ([]byte, error) {
	raw := fileFormat{SwState: sw}
	if ecmp != nil {
		raw.HwState = &hwState{WarmBootCache: ecmp}
	}
	return json.MarshalIndent(raw, "", "  ")
}
