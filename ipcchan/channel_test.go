package ipcchan

import "testing"

func TestSubscribeAndEmitTo(t *testing.T) {
	ch := New(4)
	sub := ch.Subscribe(100)

	if !ch.EmitTo(sub, Message{EvtMouseMove, 1, 2, 0, 0}) {
		t.Fatal("EmitTo should deliver to a fresh mailbox")
	}
	msg, ok := ch.Poll(sub)
	if !ok || msg[0] != EvtMouseMove {
		t.Fatalf("Poll should return the delivered message, got %v ok=%v", msg, ok)
	}
}

func TestEmitToDropsOnFullMailbox(t *testing.T) {
	ch := New(2)
	sub := ch.Subscribe(1)
	var droppedMsg Message
	var droppedSub Subscription
	ch.OnDropped(func(s Subscription, m Message) { droppedSub = s; droppedMsg = m })

	ch.EmitTo(sub, Message{1, 0, 0, 0, 0})
	ch.EmitTo(sub, Message{2, 0, 0, 0, 0})
	if ch.EmitTo(sub, Message{3, 0, 0, 0, 0}) {
		t.Fatal("a full mailbox should drop, not block or silently succeed")
	}
	if ch.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", ch.Dropped())
	}
	if droppedSub != sub || droppedMsg[0] != 3 {
		t.Fatalf("diagnostic callback got wrong data: sub=%v msg=%v", droppedSub, droppedMsg)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	ch := New(4)
	a := ch.Subscribe(1)
	b := ch.Subscribe(2)

	delivered, dropped := ch.Broadcast(Message{EvtThemeChanged, 1, 0, 0, 0})
	if delivered != 2 || dropped != 0 {
		t.Fatalf("Broadcast() = (%d,%d), want (2,0)", delivered, dropped)
	}
	if _, ok := ch.Poll(a); !ok {
		t.Fatal("subscriber a should have received the broadcast")
	}
	if _, ok := ch.Poll(b); !ok {
		t.Fatal("subscriber b should have received the broadcast")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ch := New(4)
	sub := ch.Subscribe(1)
	ch.Unsubscribe(sub)
	if ch.EmitTo(sub, Message{1, 0, 0, 0, 0}) {
		t.Fatal("emitting to an unsubscribed handle should fail")
	}
	if ch.SubscriberCount() != 0 {
		t.Fatal("unsubscribe should remove the subscriber")
	}
}

func TestSubscriptionForLooksUpByProcess(t *testing.T) {
	ch := New(4)
	sub := ch.Subscribe(77)
	got, ok := ch.SubscriptionFor(77)
	if !ok || got != sub {
		t.Fatalf("SubscriptionFor(77) = (%v,%v), want (%v,true)", got, ok, sub)
	}
	if _, ok := ch.SubscriptionFor(999); ok {
		t.Fatal("an unknown process id should not resolve")
	}
}

func TestPollAllDrainsUpToMax(t *testing.T) {
	ch := New(8)
	sub := ch.Subscribe(1)
	for i := 0; i < 5; i++ {
		ch.EmitTo(sub, Message{uint32(i), 0, 0, 0, 0})
	}
	got := ch.PollAll(sub, 3)
	if len(got) != 3 {
		t.Fatalf("PollAll(sub, 3) returned %d messages, want 3", len(got))
	}
	rest := ch.PollAll(sub, 10)
	if len(rest) != 2 {
		t.Fatalf("remaining PollAll returned %d, want 2", len(rest))
	}
}
