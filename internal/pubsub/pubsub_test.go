package pubsub

import "testing"

func TestPublishDeliversToChannelSubscriber(t *testing.T) {
	h := New()
	sub := h.Subscribe(nil, "news")

	n := h.Publish("news", []byte("hello"))
	if n != 1 {
		t.Fatalf("Publish returned %d, want 1", n)
	}

	msg := <-sub.Ch
	if msg.Channel != "news" || string(msg.Payload) != "hello" {
		t.Fatalf("got %+v", msg)
	}
}

func TestPublishMatchesPatternSubscribers(t *testing.T) {
	h := New()
	sub := h.PSubscribe(nil, "news.*")

	n := h.Publish("news.sports", []byte("goal"))
	if n != 1 {
		t.Fatalf("Publish returned %d, want 1", n)
	}

	msg := <-sub.Ch
	if msg.Pattern != "news.*" || msg.Channel != "news.sports" {
		t.Fatalf("got %+v", msg)
	}
}

func TestPublishToNoSubscribersReturnsZero(t *testing.T) {
	h := New()
	if n := h.Publish("nobody-listening", []byte("x")); n != 0 {
		t.Fatalf("Publish returned %d, want 0", n)
	}
}

func TestUnsubscribeRemovesDelivery(t *testing.T) {
	h := New()
	sub := h.Subscribe(nil, "news")
	h.Unsubscribe(sub, "news")

	if n := h.Publish("news", []byte("x")); n != 0 {
		t.Fatalf("Publish after Unsubscribe returned %d, want 0", n)
	}
}

func TestUnsubscribeAllClearsEveryRegistration(t *testing.T) {
	h := New()
	sub := h.Subscribe(nil, "a")
	h.Subscribe(sub, "b")
	h.PSubscribe(sub, "c.*")

	h.UnsubscribeAll(sub)

	if h.Publish("a", nil) != 0 || h.Publish("b", nil) != 0 || h.Publish("c.x", nil) != 0 {
		t.Fatalf("subscriber still receiving deliveries after UnsubscribeAll")
	}
}

func TestSubscriberQueueDropsOldestWhenFull(t *testing.T) {
	h := New()
	sub := h.Subscribe(nil, "flood")

	for i := 0; i < queueDepth+10; i++ {
		h.Publish("flood", []byte{byte(i)})
	}

	if len(sub.Ch) != queueDepth {
		t.Fatalf("queue length = %d, want %d (bounded, not blocked)", len(sub.Ch), queueDepth)
	}
	first := <-sub.Ch
	if first.Payload[0] != 10 {
		t.Fatalf("oldest surviving message = %d, want 10 (first 10 should have been dropped)", first.Payload[0])
	}
}

func TestPubsubChannelsNumSubNumPat(t *testing.T) {
	h := New()
	h.Subscribe(nil, "news")
	h.Subscribe(nil, "news")
	h.PSubscribe(nil, "sport.*")

	if got := h.NumSub("news"); got != 2 {
		t.Fatalf("NumSub = %d, want 2", got)
	}
	if got := h.NumPat(); got != 1 {
		t.Fatalf("NumPat = %d, want 1", got)
	}
	channels := h.ChannelsWithSubscribers("")
	if len(channels) != 1 || channels[0] != "news" {
		t.Fatalf("ChannelsWithSubscribers = %v", channels)
	}
}

func TestCloseSubscriberStopsDelivery(t *testing.T) {
	h := New()
	sub := h.Subscribe(nil, "news")
	sub.Close()

	// deliver must not panic on a closed channel, and must not block.
	h.Publish("news", []byte("x"))
}
