package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type testMsg struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type capture struct {
	msgs []*nats.Msg
	err  error
}

func (c *capture) PublishMsg(m *nats.Msg) error {
	c.msgs = append(c.msgs, m)
	return c.err
}

func TestNatsHeaderCarrier(t *testing.T) {
	carrier := (*natsHeaderCarrier)(&nats.Msg{})
	if carrier.Get("missing") != "" || carrier.Keys() != nil {
		t.Fatal("empty carrier should have no headers")
	}
	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestPublish(t *testing.T) {
	p := &capture{}
	if err := Publish(context.Background(), p, "loader.test", testMsg{Name: "doc", Value: 7}); err != nil {
		t.Fatal(err)
	}
	if len(p.msgs) != 1 || p.msgs[0].Subject != "loader.test" {
		t.Fatalf("published %v", p.msgs)
	}
	var got testMsg
	if err := json.Unmarshal(p.msgs[0].Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "doc" || got.Value != 7 {
		t.Fatalf("decoded %+v", got)
	}
}

func TestPublishError(t *testing.T) {
	p := &capture{err: errors.New("no responders")}
	if err := Publish(context.Background(), p, "s", testMsg{}); err == nil {
		t.Fatal("expected error")
	}
	if err := Publish(context.Background(), p, "s", func() {}); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestMessageInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg, err := Message(ctx, "s", testMsg{})
	if err != nil {
		t.Fatal(err)
	}
	if got := msg.Header.Get("traceparent"); got != "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01" {
		t.Fatalf("traceparent = %q", got)
	}
}
