package packets

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PUBCOMP reason codes (MQTT v5.0).
const (
	ReasonSuccess                  uint8 = 0x00
	ReasonPacketIdentifierNotFound uint8 = 0x92
)

// PubcompPacket represents an MQTT PUBCOMP control packet (QoS 2, step 3).
type PubcompPacket struct {
	PacketID uint16

	// MQTT v5.0 fields
	ReasonCode uint8       // v5.0
	Properties *Properties // v5.0
	Version    uint8       // 4 or 5
}

// Type returns the packet type.
func (p *PubcompPacket) Type() uint8 {
	return PUBCOMP
}

// short reports whether this packet encodes to the 4-byte short form: a
// Success reason with no properties omits the reason code and property
// length entirely (MQTT v5.0 spec section 3.7.1).
func (p *PubcompPacket) short() bool {
	return p.Version < 5 || (p.ReasonCode == ReasonSuccess && p.Properties == nil)
}

// Size returns the number of bytes Encode/WriteTo would write for this packet.
func (p *PubcompPacket) Size() int {
	if p.short() {
		return 4
	}

	var propBuf [128]byte
	propsLen := len(appendProperties(propBuf[:0], p.Properties))
	remainingLength := 2 + 1 + propsLen // pkid + reason + properties

	return 1 + len(appendVarInt(nil, remainingLength)) + remainingLength
}

// Encode serializes the PUBCOMP packet into dst.
func (p *PubcompPacket) Encode(dst []byte) ([]byte, error) {
	if p.short() {
		header := FixedHeader{PacketType: PUBCOMP, RemainingLength: 2}
		dst = header.appendBytes(dst)
		return binary.BigEndian.AppendUint16(dst, p.PacketID), nil
	}

	var propBuf [128]byte
	encodedProps := appendProperties(propBuf[:0], p.Properties)

	remainingLength := 2 + 1 + len(encodedProps)
	header := FixedHeader{PacketType: PUBCOMP, RemainingLength: remainingLength}
	dst = header.appendBytes(dst)

	dst = binary.BigEndian.AppendUint16(dst, p.PacketID)
	dst = append(dst, p.ReasonCode)
	dst = appendProperties(dst, p.Properties)

	return dst, nil
}

// WriteTo writes the PUBCOMP packet to the writer.
func (p *PubcompPacket) WriteTo(w io.Writer) (int64, error) {
	bufPtr := GetBuffer(4096)
	defer PutBuffer(bufPtr)

	data, err := p.Encode((*bufPtr)[:0])
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// DecodePubcomp decodes a PUBCOMP packet from the buffer.
//
// Per MQTT v5.0 section 3.7.1: when the Remaining Length is 2, the Reason
// Code and Properties are both absent and assumed to be Success/none.
func DecodePubcomp(buf []byte, version uint8) (*PubcompPacket, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("buffer too short for PUBCOMP packet")
	}

	pkt := &PubcompPacket{Version: version}
	pkt.PacketID = binary.BigEndian.Uint16(buf[0:2])

	if version < 5 || len(buf) == 2 {
		pkt.ReasonCode = ReasonSuccess
		return pkt, nil
	}

	reasonCode := buf[2]
	if reasonCode != ReasonSuccess && reasonCode != ReasonPacketIdentifierNotFound {
		return nil, fmt.Errorf("invalid PUBCOMP reason code: 0x%02X", reasonCode)
	}
	pkt.ReasonCode = reasonCode

	if len(buf) == 3 {
		return pkt, nil
	}

	props, _, err := decodeProperties(buf[3:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	pkt.Properties = props

	return pkt, nil
}
