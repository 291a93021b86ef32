package packets

import (
	"bytes"
	"testing"
)

// TestPubcompShortForm covers the 4-byte short-form wire encoding: a
// Success reason with no properties omits both the reason code and the
// property length byte entirely.
func TestPubcompShortForm(t *testing.T) {
	pkt := &PubcompPacket{PacketID: 7, ReasonCode: ReasonSuccess, Version: 5}

	want := []byte{0x70, 0x02, 0x00, 0x07}

	got, err := pkt.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("short-form encoding mismatch: got %v, want %v", got, want)
	}
	if n := pkt.Size(); n != len(want) {
		t.Errorf("Size() = %d, want %d", n, len(want))
	}

	decoded, err := DecodePubcomp(got[2:], 5)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.PacketID != pkt.PacketID {
		t.Errorf("packet id mismatch: got %d, want %d", decoded.PacketID, pkt.PacketID)
	}
	if decoded.ReasonCode != ReasonSuccess {
		t.Errorf("reason code mismatch: got 0x%02x, want 0x%02x", decoded.ReasonCode, ReasonSuccess)
	}
	if decoded.Properties != nil {
		t.Errorf("expected no properties, got %+v", decoded.Properties)
	}
}

// TestPubcompShortFormV4 covers MQTT v3.1.1, which never carries a reason
// code or properties regardless of the packet's ReasonCode field.
func TestPubcompShortFormV4(t *testing.T) {
	pkt := &PubcompPacket{PacketID: 11, ReasonCode: ReasonPacketIdentifierNotFound, Version: 4}

	got, err := pkt.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4-byte v3.1.1 packet, got %d bytes", len(got))
	}

	decoded, err := DecodePubcomp(got[2:], 4)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ReasonCode != ReasonSuccess {
		t.Errorf("v3.1.1 decode should assume success, got 0x%02x", decoded.ReasonCode)
	}
}

// TestPubcompLongFormReasonCode covers a non-success reason code carried
// without any properties — still long form, since short form requires
// Success specifically.
func TestPubcompLongFormReasonCode(t *testing.T) {
	pkt := &PubcompPacket{
		PacketID:   42,
		ReasonCode: ReasonPacketIdentifierNotFound,
		Version:    5,
	}

	got, err := pkt.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6-byte long-form packet (reason code + zero property length), got %d bytes: %v", len(got), got)
	}

	decoded, err := DecodePubcomp(got[2:], 5)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ReasonCode != ReasonPacketIdentifierNotFound {
		t.Errorf("reason code mismatch: got 0x%02x, want 0x%02x", decoded.ReasonCode, ReasonPacketIdentifierNotFound)
	}
	if decoded.Properties != nil {
		t.Errorf("expected no properties, got %+v", decoded.Properties)
	}
}

// TestPubcompInvalidReasonCode rejects reason codes PUBCOMP never defines.
func TestPubcompInvalidReasonCode(t *testing.T) {
	buf := []byte{0x00, 0x2A, 0x80} // pkid=42, reason=0x80 (not a PUBCOMP code)
	if _, err := DecodePubcomp(buf, 5); err == nil {
		t.Errorf("expected error for invalid reason code, got nil")
	}
}

// TestPubcompSizeMatchesEncodedLength checks Size() against the actual
// encoded length across both the short and long forms.
func TestPubcompSizeMatchesEncodedLength(t *testing.T) {
	cases := []*PubcompPacket{
		{PacketID: 1, ReasonCode: ReasonSuccess, Version: 5},
		{PacketID: 2, ReasonCode: ReasonPacketIdentifierNotFound, Version: 5},
		{
			PacketID:   3,
			ReasonCode: ReasonSuccess,
			Version:    5,
			Properties: &Properties{
				ReasonString: "done",
				Presence:     PresReasonString,
			},
		},
	}

	for _, pkt := range cases {
		got, err := pkt.Encode(nil)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if want := pkt.Size(); len(got) != want {
			t.Errorf("Size() = %d, encoded length = %d for %+v", want, len(got), pkt)
		}
	}
}
