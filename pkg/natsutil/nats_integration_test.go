//go:build integration

package natsutil

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(natsURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return nc
}

func TestNATS_PubSub(t *testing.T) {
	nc := connectNATS(t)

	type msg struct {
		Text string `json:"text"`
	}

	sub, err := nc.SubscribeSync("loader.integ.errors")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "loader.integ.errors", msg{Text: "document 17 rejected"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	m, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("waiting for message: %v", err)
	}
	var got msg
	if err := json.Unmarshal(m.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "document 17 rejected" {
		t.Fatalf("expected 'document 17 rejected', got %q", got.Text)
	}
}
