package z9001

// Whole-system snapshots are value copies of the System struct. The
// debug hook and audio callback cannot be persisted and are stripped on
// save; the memory page table references the source instance's buffers
// and is dropped as well. On load everything is rebound against the
// live system.

// SaveSnapshot copies the machine state into dst with all references to
// the live system neutralized, and returns the snapshot version.
func (s *System) SaveSnapshot(dst *System) uint32 {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	*dst = *s
	dst.debug = DebugHook{}
	dst.audio.callback = nil
	dst.mem.SnapshotOnSave()
	return SnapshotVersion
}

// LoadSnapshot restores the machine state from a snapshot taken with
// SaveSnapshot. It returns false and leaves the system untouched when
// the version does not match.
func (s *System) LoadSnapshot(version uint32, src *System) bool {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	if version != SnapshotVersion {
		return false
	}
	im := *src
	im.debug = s.debug
	im.audio.callback = s.audio.callback
	*s = im
	s.mapMemory()
	return true
}
