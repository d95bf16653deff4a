package alert

import "testing"

func TestThreadArenaSet_RotateSkipsClean(t *testing.T) {
	ts := newThreadArenaSet()

	g0 := ts.Generation()
	ts.Rotate() // current arena is clean, rotation should be a no-op
	if ts.Generation() != g0 {
		t.Errorf("generation changed on a no-op rotate: %d -> %d", g0, ts.Generation())
	}
}

func TestThreadArenaSet_RotateAdvancesWhenDirty(t *testing.T) {
	ts := newThreadArenaSet()

	ts.Current().Alloc(8, 1)
	ts.Rotate()
	if ts.Generation() != 1 {
		t.Errorf("generation after first dirty rotate = %d, want 1", ts.Generation())
	}

	ts.Current().Alloc(8, 1)
	ts.Rotate()
	if ts.Generation() != 2 {
		t.Errorf("generation after second dirty rotate = %d, want 2", ts.Generation())
	}
}

func TestThreadArenaSet_TwoGenerationGap(t *testing.T) {
	ts := newThreadArenaSet()

	off := ts.Current().Write([]byte("payload"), 1)
	g0 := ts.Generation()

	// Rotate resets the *next* arena before switching into it, so an
	// arena's data survives every rotation that doesn't cycle all the
	// way back around to it -- here, two full rotations.
	ts.Current().Alloc(1, 1)
	ts.Rotate() // g0 -> g0+1; resets arena g0+1, not g0

	stillThere := ts.at(g0).Bytes(off, len("payload"))
	if string(stillThere) != "payload" {
		t.Fatalf("arena at generation %d was reset too early: got %q", g0, stillThere)
	}

	ts.Current().Alloc(1, 1)
	ts.Rotate() // g0+1 -> g0+2; resets arena g0+2, still not g0

	if !ts.at(g0).Dirty() {
		t.Errorf("arena at generation %d reset one rotation too early", g0)
	}

	ts.Current().Alloc(1, 1)
	ts.Rotate() // g0+2 -> g0; this is the rotation that finally resets arena g0

	if ts.at(g0).Dirty() {
		t.Errorf("arena at generation %d should be reset once the cycle returns to it", g0)
	}
}

func TestArenaSet_AtOutOfRange(t *testing.T) {
	ts := newThreadArenaSet()
	if ts.at(-1) != nil {
		t.Error("at(-1) should return nil")
	}
	if ts.at(arenaGenerations) != nil {
		t.Error("at(arenaGenerations) should return nil")
	}
}
