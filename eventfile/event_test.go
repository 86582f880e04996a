package eventfile_test

import (
	"math"
	"testing"
	"time"

	"github.com/PenroseTiles/amplification/eventfile"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestMarshalUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		ev   *eventfile.Event
	}{
		{"FileVersion", &eventfile.Event{WallTime: 1700000000.5, FileVersion: eventfile.FileVersion}},
		{"Scalars", &eventfile.Event{WallTime: 1700000001.25, Step: 5, Scalars: []eventfile.Scalar{{Tag: "acc", Value: 0.5}, {Tag: "loss", Value: 0.25}}}},
		{"ZeroValue", &eventfile.Event{WallTime: 1, Step: 1, Scalars: []eventfile.Scalar{{Tag: "zero", Value: 0}}}},
		{"NegativeStep", &eventfile.Event{WallTime: 1, Step: -3, Scalars: []eventfile.Scalar{{Tag: "x", Value: -1}}}},
		{"EmptySummary", &eventfile.Event{WallTime: 2, Step: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eventfile.Unmarshal(tt.ev.Marshal())
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if diff := cmp.Diff(tt.ev, got); diff != "" {
				t.Errorf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshalLayout(t *testing.T) {
	ev := &eventfile.Event{WallTime: 1, Step: 2, Scalars: []eventfile.Scalar{{Tag: "a", Value: 1}}}
	b := ev.Marshal()

	num, typ, n := protowire.ConsumeTag(b)
	if num != 1 || typ != protowire.Fixed64Type {
		t.Fatalf("first field = (%d, %v), want wall_time double", num, typ)
	}
	wallTime, m := protowire.ConsumeFixed64(b[n:])
	if math.Float64frombits(wallTime) != 1 {
		t.Errorf("wall_time = %v, want 1", math.Float64frombits(wallTime))
	}
	b = b[n+m:]

	num, typ, n = protowire.ConsumeTag(b)
	if num != 2 || typ != protowire.VarintType {
		t.Fatalf("second field = (%d, %v), want step varint", num, typ)
	}
	step, m := protowire.ConsumeVarint(b[n:])
	if step != 2 {
		t.Errorf("step = %d, want 2", step)
	}
	b = b[n+m:]

	num, typ, _ = protowire.ConsumeTag(b)
	if num != 5 || typ != protowire.BytesType {
		t.Fatalf("third field = (%d, %v), want summary message", num, typ)
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	ev := &eventfile.Event{WallTime: 3, Step: 4, Scalars: []eventfile.Scalar{{Tag: "loss", Value: 1}}}
	b := ev.Marshal()
	// log_message (field 6) is not modelled and must be skipped.
	b = protowire.AppendTag(b, 6, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{0x08, 0x01})

	got, err := eventfile.Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	b := (&eventfile.Event{WallTime: 3}).Marshal()
	if _, err := eventfile.Unmarshal(b[:4]); err == nil {
		t.Error("expected error for truncated event")
	}
}

func TestNewScalarEventTime(t *testing.T) {
	now := time.Unix(1700000000, 500000000)
	ev := eventfile.NewScalarEvent(now, 1, nil)
	if ev.WallTime != 1700000000.5 {
		t.Errorf("WallTime = %v, want 1700000000.5", ev.WallTime)
	}
	if got := ev.Time(); !got.Equal(now) {
		t.Errorf("Time() = %v, want %v", got, now)
	}
}
