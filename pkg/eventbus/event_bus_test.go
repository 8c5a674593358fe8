package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/peopledesk/peopledesk/pkg/logging"
)

type testEvent struct {
	data interface{}
}

func TestPublisher_Publish_NoSubscribers(t *testing.T) {
	type otherEvent struct {
		data interface{}
	}
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *testEvent) {
		t.Error("should not be called")
	})
	publisher.Publish(&otherEvent{data: "test"})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	called := false
	var data interface{}
	publisher.Subscribe(func(e *testEvent) {
		called = true
		data = e.data
	})
	publisher.Publish(&testEvent{data: "payload"})

	if !called {
		t.Fatal("subscriber was not called")
	}
	if data != "payload" {
		t.Fatalf("expected payload, got %v", data)
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher(nil)
	handler := func(e *testEvent) {
		t.Error("should not be called after unsubscribe")
	}
	publisher.Subscribe(handler)
	if publisher.SubscribersCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", publisher.SubscribersCount())
	}
	publisher.Unsubscribe(handler)
	if publisher.SubscribersCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", publisher.SubscribersCount())
	}
	publisher.Publish(&testEvent{})
}
