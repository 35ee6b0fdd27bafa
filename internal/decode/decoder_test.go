package decode

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/packetplot/packetplot/internal/testutil"
	"github.com/packetplot/packetplot/internal/timeutil"
)

// ignoreStamps compares packets by id and value only; timestamps and sequence
// numbers are covered by dedicated tests.
var ignoreStamps = cmpopts.IgnoreFields(ParsedPacket{}, "Plaintext", "ParseTime", "Seq")

func decodeAll(t *testing.T, doc string, chunks ...string) []ParsedPacket {
	t.Helper()
	desc := testutil.MustDescriptor(t, doc)
	dec, err := New(desc, timeutil.NewMockClock(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var packets []ParsedPacket
	for _, chunk := range chunks {
		packets = append(packets, dec.Decode([]byte(chunk))...)
	}
	return packets
}

func TestType0DropsUnknownIDs(t *testing.T) {
	doc := `{
		"type": 0,
		"packet_delimiters": ["\n"],
		"data_delimiters": [":"],
		"ignore": [" rpm", " "],
		"packet_ids": ["motor speed"]
	}`
	got := decodeAll(t, doc, "motor speed: 200 rpm\nhello world\nmotor speed: 199 rpm\n")
	want := []ParsedPacket{
		{ID: "motor speed", Value: "200"},
		{ID: "motor speed", Value: "199"},
	}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType0FragmentSpansChunks(t *testing.T) {
	doc := `{
		"type": 0,
		"packet_delimiters": ["\n"],
		"data_delimiters": [": "],
		"packet_ids": ["temp"]
	}`
	got := decodeAll(t, doc, "temp: 2", "1.5\ntem", "p: 22.0\n")
	want := []ParsedPacket{
		{ID: "temp", Value: "21.5"},
		{ID: "temp", Value: "22.0"},
	}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType0FragmentWithoutDataDelimiter(t *testing.T) {
	doc := `{
		"type": 0,
		"packet_delimiters": ["\n"],
		"data_delimiters": [":"],
		"packet_ids": ["ping"]
	}`
	// The whole fragment is the id and the value is empty.
	got := decodeAll(t, doc, "ping\n")
	want := []ParsedPacket{{ID: "ping", Value: ""}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType1PairsSpecifierTokens(t *testing.T) {
	doc := `{
		"type": 1,
		"packet_delimiters": [";"],
		"data_delimiters": [":"],
		"specifiers": ["id", "data"],
		"packet_ids": ["temp"]
	}`
	// "light" is not whitelisted, so its pairing is consumed but dropped.
	got := decodeAll(t, doc, "id:temp;data:128;id:light;data:8000;")
	want := []ParsedPacket{{ID: "temp", Value: "128"}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType1DataWithoutPendingID(t *testing.T) {
	doc := `{
		"type": 1,
		"packet_delimiters": [";"],
		"data_delimiters": [":"],
		"specifiers": ["id", "data"],
		"packet_ids": ["temp"]
	}`
	if got := decodeAll(t, doc, "data:5;"); len(got) != 0 {
		t.Errorf("got %d packets, want 0 for a DATA token with no pending id", len(got))
	}
}

func TestType1NewIDOverwritesPending(t *testing.T) {
	doc := `{
		"type": 1,
		"packet_delimiters": [";"],
		"data_delimiters": [":"],
		"specifiers": ["id", "data"],
		"packet_ids": ["a", "b"]
	}`
	got := decodeAll(t, doc, "id:a;id:b;data:7;data:9;")
	// "a" is overwritten by "b"; the second data token finds an empty slot.
	want := []ParsedPacket{{ID: "b", Value: "7"}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType1PairSpansChunks(t *testing.T) {
	doc := `{
		"type": 1,
		"packet_delimiters": [";"],
		"data_delimiters": [":"],
		"specifiers": ["id", "data"],
		"packet_ids": ["temp"]
	}`
	got := decodeAll(t, doc, "id:te", "mp;da", "ta:42;")
	want := []ParsedPacket{{ID: "temp", Value: "42"}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType2FixedByteFrames(t *testing.T) {
	doc := `{
		"type": 2,
		"header_order": ["ID", "DATA"],
		"header_len": [3, 8],
		"packet_ids": ["0x432000"]
	}`
	frame := []byte{
		0x43, 0x20, 0x00, // id
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x05, // data
	}
	other := []byte{
		0x99, 0x00, 0x00,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	got := decodeAll(t, doc, string(frame), string(other), string(frame[:5]))
	want := []ParsedPacket{
		{ID: "0x432000", Value: "0x0000000000000105"},
	}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType2ShortRemainderWaits(t *testing.T) {
	doc := `{
		"type": 2,
		"header_order": ["ID", "DATA"],
		"header_len": [1, 1],
		"packet_ids": ["0xaa"]
	}`
	desc := testutil.MustDescriptor(t, doc)
	dec, err := New(desc, timeutil.NewMockClock(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := dec.Decode([]byte{0xAA}); len(got) != 0 {
		t.Fatalf("got %d packets from a half frame, want 0", len(got))
	}
	got := dec.Decode([]byte{0x07})
	want := []ParsedPacket{{ID: "0xaa", Value: "0x07"}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType3BitPackedFrames(t *testing.T) {
	doc := `{
		"type": 3,
		"header_order": ["ID", "DATA"],
		"header_len": [4, 8],
		"packet_ids": ["0b0001"]
	}`
	// 12-bit frame in 2 wire bytes with 4 pad bits: 0000 0001 00000101.
	got := decodeAll(t, doc, string([]byte{0x01, 0x05}))
	want := []ParsedPacket{{ID: "0b0001", Value: "5"}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestType3IDKeepsLeadingZeroBits(t *testing.T) {
	doc := `{
		"type": 3,
		"header_order": ["ID", "DATA"],
		"header_len": [6, 10],
		"packet_ids": ["0b000011"]
	}`
	// 16-bit frame, no padding: id 0b000011, data 0b1100000001 = 769.
	got := decodeAll(t, doc, string([]byte{0x0F, 0x01}))
	want := []ParsedPacket{{ID: "0b000011", Value: "769"}}
	if diff := cmp.Diff(want, got, ignoreStamps); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitterStampsSequenceAndTime(t *testing.T) {
	doc := `{
		"type": 0,
		"packet_delimiters": ["\n"],
		"data_delimiters": [":"],
		"packet_ids": ["a"]
	}`
	desc := testutil.MustDescriptor(t, doc)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	dec, err := New(desc, clock)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	clock.SetNanos(100)
	first := dec.Decode([]byte("a:1\n"))
	clock.SetNanos(250)
	second := dec.Decode([]byte("a:2\n"))

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("got %d and %d packets, want 1 and 1", len(first), len(second))
	}
	if first[0].Seq != 0 || second[0].Seq != 1 {
		t.Errorf("Seq = %d, %d; want 0, 1", first[0].Seq, second[0].Seq)
	}
	if first[0].ParseTime != 100 || second[0].ParseTime != 250 {
		t.Errorf("ParseTime = %d, %d; want 100, 250", first[0].ParseTime, second[0].ParseTime)
	}
	if first[0].Plaintext != "a: 1" {
		t.Errorf("Plaintext = %q, want %q", first[0].Plaintext, "a: 1")
	}
}

func TestResetDropsCrossUnitState(t *testing.T) {
	doc := `{
		"type": 1,
		"packet_delimiters": [";"],
		"data_delimiters": [":"],
		"specifiers": ["id", "data"],
		"packet_ids": ["temp"]
	}`
	desc := testutil.MustDescriptor(t, doc)
	dec, err := New(desc, timeutil.NewMockClock(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dec.Decode([]byte("id:temp;da"))
	dec.Reset()
	// Both the buffered partial token and the pending id are gone, so the
	// tail of the old stream pairs with nothing.
	if got := dec.Decode([]byte("ta:55;")); len(got) != 0 {
		t.Errorf("got %d packets after Reset, want 0", len(got))
	}
}
