package alert

import "testing"

func TestRegisterKind_AssignsSequentialIDs(t *testing.T) {
	before := kindCount

	id1 := RegisterKind(KindInfo{Name: "k1", New: func() Event { return &StatusUpdateAlert{} }})
	id2 := RegisterKind(KindInfo{Name: "k2", New: func() Event { return &StatusUpdateAlert{} }})

	if id2 != id1+1 {
		t.Errorf("kind IDs not sequential: %d then %d", id1, id2)
	}
	if kindCount != before+2 {
		t.Errorf("kindCount = %d, want %d", kindCount, before+2)
	}
}

func TestRegisterKind_PanicsWithoutConstructor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("RegisterKind should panic when New is nil")
		}
	}()
	RegisterKind(KindInfo{Name: "broken"})
}

func TestKindInfo_RoundTrip(t *testing.T) {
	id := RegisterKind(KindInfo{Name: "roundtrip", Priority: PriorityReserved, Category: 0x4, New: func() Event { return &ErrorAlert{} }})

	info := kindInfo(id)
	if info.Name != "roundtrip" || info.Priority != PriorityReserved || info.Category != 0x4 {
		t.Errorf("kindInfo mismatch: %+v", info)
	}
}
