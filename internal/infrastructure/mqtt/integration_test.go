package mqtt

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"
)

// Integration tests require a running broker at 127.0.0.1:1883.
// Enable with PAWFEED_MQTT_TEST=1.
func requireBroker(t *testing.T) {
	t.Helper()
	if os.Getenv("PAWFEED_MQTT_TEST") == "" {
		t.Skip("set PAWFEED_MQTT_TEST=1 to run broker integration tests")
	}
}

func TestConnectAndClose(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.FeederEvent("integration_test")
	received := make(chan []byte, 1)
	var once sync.Once

	err = client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		once.Do(func() { received <- payload })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []byte(`{"portion_grams":50}`)
	if err := client.Publish(topic, want, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(want) {
			t.Errorf("received %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
