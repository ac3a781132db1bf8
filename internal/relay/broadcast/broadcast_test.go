package broadcast

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func receiveOne(t *testing.T, sub *Subscription) []byte {
	t.Helper()
	select {
	case payload, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
	}
	return nil
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	ch := NewChannel(10)
	a := ch.Subscribe()
	b := ch.Subscribe()
	c := ch.Subscribe()
	defer a.Cancel()
	defer b.Cancel()
	defer c.Cancel()

	ch.Publish([]byte("hello"))

	for _, sub := range []*Subscription{a, b, c} {
		got := receiveOne(t, sub)
		if string(got) != "hello" {
			t.Errorf("received %q, want %q", got, "hello")
		}
	}
}

func TestPublisherReceivesOwnMessage(t *testing.T) {
	ch := NewChannel(10)
	self := ch.Subscribe()
	defer self.Cancel()

	ch.Publish([]byte("echo"))

	if got := receiveOne(t, self); string(got) != "echo" {
		t.Errorf("received %q, want %q", got, "echo")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	ch := NewChannel(3)
	slow := ch.Subscribe()
	defer slow.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			ch.Publish([]byte(fmt.Sprintf("msg-%d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// Oldest payloads were evicted; the backlog holds the newest ones.
	got := receiveOne(t, slow)
	if string(got) == "msg-0" {
		t.Error("oldest payload survived a full backlog")
	}
	if n := len(slow.ch); n > 2 {
		t.Errorf("backlog holds %d payloads after one receive, want at most 2", n)
	}
}

func TestCancelLeavesOthersAttached(t *testing.T) {
	ch := NewChannel(10)
	leaving := ch.Subscribe()
	staying := ch.Subscribe()
	defer staying.Cancel()

	leaving.Cancel()

	if _, ok := <-leaving.C(); ok {
		t.Error("cancelled subscription channel still open")
	}

	ch.Publish([]byte("still here"))
	if got := receiveOne(t, staying); string(got) != "still here" {
		t.Errorf("received %q, want %q", got, "still here")
	}

	if n := ch.SubscriberCount(); n != 1 {
		t.Errorf("subscriber count = %d, want 1", n)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	ch := NewChannel(10)
	sub := ch.Subscribe()

	sub.Cancel()
	sub.Cancel()

	if n := ch.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}
}

func TestConcurrentPublishersAndCancels(t *testing.T) {
	ch := NewChannel(5)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		sub := ch.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range sub.C() {
			}
		}()
		time.AfterFunc(time.Duration(i)*time.Millisecond, sub.Cancel)
	}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ch.Publish([]byte(fmt.Sprintf("p%d-%d", n, j)))
			}
		}(i)
	}

	wg.Wait()

	if n := ch.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d after all cancels, want 0", n)
	}
}
