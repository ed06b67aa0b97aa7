package semantic

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
)

func TestToPayload(t *testing.T) {
	p := toPayload(map[string]any{
		"text":          "backprop computes gradients",
		"segment_index": 3,
		"duration":      4.5,
		"keyframe":      true,
	})

	if got := p["text"].GetStringValue(); got != "backprop computes gradients" {
		t.Errorf("unexpected text value: %q", got)
	}
	if got := p["segment_index"].GetIntegerValue(); got != 3 {
		t.Errorf("unexpected segment_index: %d", got)
	}
	if got := p["duration"].GetDoubleValue(); got != 4.5 {
		t.Errorf("unexpected duration: %v", got)
	}
	if got := p["keyframe"].GetBoolValue(); !got {
		t.Error("expected keyframe true")
	}
}

func TestResultFromPayload(t *testing.T) {
	payload := map[string]*pb.Value{
		"text":      {Kind: &pb.Value_StringValue{StringValue: "Backprop computes gradients..."}},
		"video_key": {Kind: &pb.Value_StringValue{StringValue: "lec3"}},
		"start":     {Kind: &pb.Value_StringValue{StringValue: "00:10:00.000"}},
		"end":       {Kind: &pb.Value_StringValue{StringValue: "00:10:45.000"}},
		"topic":     {Kind: &pb.Value_StringValue{StringValue: "neural-nets"}},
	}

	sr := resultFromPayload(0.9, payload)
	if sr.Score != 0.9 {
		t.Errorf("unexpected score: %v", sr.Score)
	}
	if sr.VideoKey != "lec3" || sr.Start != "00:10:00.000" || sr.End != "00:10:45.000" {
		t.Errorf("unexpected mapping: %+v", sr)
	}
	if sr.Text != "Backprop computes gradients..." {
		t.Errorf("unexpected text: %q", sr.Text)
	}
	if sr.Meta["topic"] != "neural-nets" {
		t.Errorf("extra payload keys should land in Meta, got %v", sr.Meta)
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		in   *pb.Value
		want string
	}{
		{&pb.Value{Kind: &pb.Value_StringValue{StringValue: "x"}}, "x"},
		{&pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: 7}}, "7"},
		{&pb.Value{Kind: &pb.Value_BoolValue{BoolValue: true}}, "true"},
	}
	for _, c := range cases {
		if got := valueString(c.in); got != c.want {
			t.Errorf("valueString = %q, want %q", got, c.want)
		}
	}
}
