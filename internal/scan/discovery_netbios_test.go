package scan

import (
	"encoding/binary"
	"testing"
)

func nodeStatusEntry(name string, suffix byte, flags uint16) []byte {
	entry := make([]byte, 0, nbnsNameEntrySize)
	padded := name
	for len(padded) < nbnsNameLen {
		padded += " "
	}
	entry = append(entry, padded[:nbnsNameLen]...)
	entry = append(entry, suffix)
	return binary.BigEndian.AppendUint16(entry, flags)
}

func nodeStatusResponse(entries ...[]byte) []byte {
	packet := make([]byte, 0, 128)
	packet = binary.BigEndian.AppendUint16(packet, 0x8228) // transaction id
	packet = binary.BigEndian.AppendUint16(packet, 0x8400) // response flags
	packet = binary.BigEndian.AppendUint16(packet, 1)      // questions
	packet = binary.BigEndian.AppendUint16(packet, 1)      // answers
	packet = append(packet, 0, 0, 0, 0)                    // authority/additional

	packet = append(packet, encodeNetBIOSName('*')...)
	packet = binary.BigEndian.AppendUint16(packet, nbnsTypeNBSTAT)
	packet = binary.BigEndian.AppendUint16(packet, nbnsClassIN)

	packet = append(packet, 0xc0, 0x0c) // answer name: pointer to question
	packet = binary.BigEndian.AppendUint16(packet, nbnsTypeNBSTAT)
	packet = binary.BigEndian.AppendUint16(packet, nbnsClassIN)
	packet = append(packet, 0, 0, 0, 0) // TTL
	packet = binary.BigEndian.AppendUint16(packet, uint16(1+len(entries)*nbnsNameEntrySize))

	packet = append(packet, byte(len(entries)))
	for _, entry := range entries {
		packet = append(packet, entry...)
	}
	return packet
}

func TestParseNodeStatus(t *testing.T) {
	response := nodeStatusResponse(
		nodeStatusEntry("MYPC", 0x00, 0x8400),
		nodeStatusEntry("WORKGROUP", 0x00, 0x8400),
	)

	names := parseNodeStatus(response)
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d: %v", len(names), names)
	}
	if names[0] != "MYPC" || names[1] != "WORKGROUP" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestParseNodeStatusFiltersEntries(t *testing.T) {
	response := nodeStatusResponse(
		nodeStatusEntry("MYPC", 0x00, 0x8400),
		nodeStatusEntry("STALE", 0x00, 0x0400),  // not active
		nodeStatusEntry("BROWSER", 0x1c, 0x8400), // service suffix
	)

	names := parseNodeStatus(response)
	if len(names) != 1 || names[0] != "MYPC" {
		t.Fatalf("expected only MYPC, got %v", names)
	}
}

func TestParseNodeStatusRejectsGarbage(t *testing.T) {
	if names := parseNodeStatus(nil); names != nil {
		t.Fatalf("expected nil for empty packet, got %v", names)
	}
	if names := parseNodeStatus([]byte{0x82, 0x28, 0x00}); names != nil {
		t.Fatalf("expected nil for truncated packet, got %v", names)
	}
	// A query (response bit clear) must not parse.
	query := nbnsNodeStatusQuery()
	if names := parseNodeStatus(query); names != nil {
		t.Fatalf("expected nil for query packet, got %v", names)
	}
}

func TestEncodeNetBIOSName(t *testing.T) {
	encoded := encodeNetBIOSName('*')
	if len(encoded) != 34 {
		t.Fatalf("expected 34 bytes, got %d", len(encoded))
	}
	if encoded[0] != 0x20 {
		t.Fatalf("expected length byte 0x20, got %#x", encoded[0])
	}
	// '*' is 0x2A: nibbles 2 and 10 encode as 'C' and 'K'.
	if encoded[1] != 'C' || encoded[2] != 'K' {
		t.Fatalf("unexpected wildcard encoding: %q", encoded[1:3])
	}
	if encoded[33] != 0x00 {
		t.Fatalf("expected terminating zero, got %#x", encoded[33])
	}
}
