package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func publishStatuses(t *testing.T, pub *SSEPublisher, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := pub.Publish(TopicAtlasStatus, "reloaded", AtlasStatus{State: "reloaded", Nodes: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}
}

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicAtlasStatus, TopicConfig{BufferSize: 3, ReplayAll: true})
	publishStatuses(t, pub, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicAtlasStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last 3 of 5
	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
			var status AtlasStatus
			if err := json.Unmarshal(event.Data, &status); err != nil {
				t.Fatalf("Failed to decode payload: %v", err)
			}
			if status.Nodes != want {
				t.Errorf("Expected nodes %d, got %d", want, status.Nodes)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for event version %d", want)
		}
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicAtlasStatus, TopicConfig{BufferSize: 5, ReplayAll: false})
	publishStatuses(t, pub, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicAtlasStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for replayed event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	publishStatuses(t, pub, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicAtlasStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Expected no replay, got version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	publishStatuses(t, pub, 1)
	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for live event")
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicAtlasStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscription channel not closed after cancel")
	}

	// Publishing after the subscriber left must not panic.
	publishStatuses(t, pub, 1)
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()
	pub.Close()

	if err := pub.Publish(TopicAtlasStatus, "loaded", AtlasStatus{}); err == nil {
		t.Error("Expected error publishing on closed publisher")
	}
	if _, err := pub.Subscribe(context.Background(), TopicAtlasStatus); err == nil {
		t.Error("Expected error subscribing to closed publisher")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicAtlasStatus, Type: "loaded", Data: json.RawMessage(`{"state":"loaded"}`), Version: 1}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "event: loaded\ndata: ") {
		t.Errorf("Unexpected prefix: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Expected blank-line terminator: %q", out)
	}
	if !strings.Contains(out, `"topic":"atlas_status"`) {
		t.Errorf("Expected topic in payload: %q", out)
	}
}
