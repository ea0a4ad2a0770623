package ipcchan

import "testing"

type recordingHandler struct {
	fastCodes map[uint32]bool
	locked    bool
	lockRuns  []int // length of each Lock/Unlock-bracketed run
	curRun    int
	order     []string
}

func (h *recordingHandler) IsFast(code uint32) bool { return h.fastCodes[code] }

func (h *recordingHandler) Lock() {
	h.locked = true
	h.curRun = 0
}

func (h *recordingHandler) Unlock() {
	h.locked = false
	h.lockRuns = append(h.lockRuns, h.curRun)
}

func (h *recordingHandler) HandleFast(cmd Message) (Response, bool) {
	if !h.locked {
		panic("HandleFast called without the lock held")
	}
	h.curRun++
	h.order = append(h.order, "fast")
	return Response{Target: 1, Msg: Message{cmd[0] + 1, 0, 0, 0, 0}}, true
}

func (h *recordingHandler) HandleSlow(cmd Message) (Response, bool) {
	if h.locked {
		panic("HandleSlow must manage its own locking, not run under Dispatch's lock")
	}
	h.order = append(h.order, "slow")
	return Response{Target: 1, Msg: Message{cmd[0] + 1, 0, 0, 0, 0}}, true
}

func TestDispatchBatchesConsecutiveFastUnderOneLock(t *testing.T) {
	ch := New(16)
	sub := ch.Subscribe(1)
	h := &recordingHandler{fastCodes: map[uint32]bool{CmdPresent: true}}

	ch.EmitTo(sub, Message{CmdPresent, 0, 0, 0, 0})
	ch.EmitTo(sub, Message{CmdPresent, 0, 0, 0, 0})
	ch.EmitTo(sub, Message{CmdPresent, 0, 0, 0, 0})

	responses := Dispatch(ch, sub, h)
	if len(responses) != 3 {
		t.Fatalf("want 3 responses, got %d", len(responses))
	}
	if len(h.lockRuns) != 1 || h.lockRuns[0] != 3 {
		t.Fatalf("want a single lock run of 3, got %v", h.lockRuns)
	}
}

func TestDispatchGivesSlowCommandsTheirOwnCycle(t *testing.T) {
	ch := New(16)
	sub := ch.Subscribe(1)
	h := &recordingHandler{fastCodes: map[uint32]bool{CmdPresent: true}}

	ch.EmitTo(sub, Message{CmdCreateWindow, 0, 0, 0, 0}) // slow
	ch.EmitTo(sub, Message{CmdPresent, 0, 0, 0, 0})      // fast
	ch.EmitTo(sub, Message{CmdPresent, 0, 0, 0, 0})      // fast
	ch.EmitTo(sub, Message{CmdCreateWindow, 0, 0, 0, 0}) // slow

	responses := Dispatch(ch, sub, h)
	if len(responses) != 4 {
		t.Fatalf("want 4 responses, got %d", len(responses))
	}
	want := []string{"slow", "fast", "fast", "slow"}
	if len(h.order) != len(want) {
		t.Fatalf("order = %v, want %v", h.order, want)
	}
	for i := range want {
		if h.order[i] != want[i] {
			t.Fatalf("order = %v, want %v", h.order, want)
		}
	}
	if len(h.lockRuns) != 1 || h.lockRuns[0] != 2 {
		t.Fatalf("want one lock run covering the 2 consecutive fast commands, got %v", h.lockRuns)
	}
}

func TestDispatchOnEmptyQueueReturnsNil(t *testing.T) {
	ch := New(16)
	sub := ch.Subscribe(1)
	h := &recordingHandler{fastCodes: map[uint32]bool{}}
	if r := Dispatch(ch, sub, h); r != nil {
		t.Fatalf("dispatching an empty queue should return nil, got %v", r)
	}
	if h.locked {
		t.Fatal("Lock should never be called when there is nothing to process")
	}
}
