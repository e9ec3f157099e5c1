package scan

import (
	"context"
	"encoding/binary"
	"net"
	"strings"
	"time"
)

// NetBIOS node-status constants (RFC 1002). The wildcard query asks a host to
// enumerate every name its NetBIOS stack holds, which on Windows machines
// includes the computer and workgroup names.
const (
	nbnsPort          = "137"
	nbnsTypeNBSTAT    = 0x0021
	nbnsClassIN       = 0x0001
	nbnsNameEntrySize = 18 // 15-byte name + suffix byte + 2 flag bytes
	nbnsNameLen       = 15
	nbnsFlagActive    = 0x8000
)

// lookupNetBIOS sends a NetBIOS node-status query over UDP/137 and returns
// the active unique names the host reports. Hosts without a NetBIOS stack
// simply never answer.
func lookupNetBIOS(ctx context.Context, addr string) []string {
	conn, err := net.DialTimeout("udp", net.JoinHostPort(addr, nbnsPort), time.Second)
	if err != nil {
		return nil
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Second)
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(nbnsNodeStatusQuery()); err != nil {
		return nil
	}

	response := make([]byte, 4096)
	n, err := conn.Read(response)
	if err != nil {
		return nil
	}
	return parseNodeStatus(response[:n])
}

// nbnsNodeStatusQuery builds a wildcard ("*") node-status request.
func nbnsNodeStatusQuery() []byte {
	packet := make([]byte, 0, 50)
	packet = binary.BigEndian.AppendUint16(packet, 0x8228) // transaction id
	packet = binary.BigEndian.AppendUint16(packet, 0x0000) // flags: standard query
	packet = binary.BigEndian.AppendUint16(packet, 1)      // questions
	packet = append(packet, 0, 0, 0, 0, 0, 0)              // answer/authority/additional counts
	packet = append(packet, encodeNetBIOSName('*')...)
	packet = binary.BigEndian.AppendUint16(packet, nbnsTypeNBSTAT)
	packet = binary.BigEndian.AppendUint16(packet, nbnsClassIN)
	return packet
}

// encodeNetBIOSName applies first-level encoding to a single-character name
// padded to 16 bytes: each nibble becomes a letter in [A,P].
func encodeNetBIOSName(name byte) []byte {
	out := make([]byte, 0, 34)
	out = append(out, 0x20)
	out = append(out, 'A'+name>>4, 'A'+name&0x0f)
	for i := 0; i < 15; i++ {
		out = append(out, 'A', 'A') // trailing NULs
	}
	return append(out, 0x00)
}

// parseNodeStatus extracts active unique names from a node-status response.
func parseNodeStatus(data []byte) []string {
	// Header: id, flags, and four section counts.
	if len(data) < 12 {
		return nil
	}
	if data[2]&0x80 == 0 { // not a response
		return nil
	}

	// Skip the question section (the query echoed back), then the answer's
	// owner name, type, class, TTL and RDLENGTH to reach the name entries.
	offset := skipEncodedName(data, 12)
	if offset < 0 || len(data) < offset+4 {
		return nil
	}
	offset += 4 // question type + class

	offset = skipEncodedName(data, offset)
	if offset < 0 || len(data) < offset+11 {
		return nil
	}
	offset += 10 // answer type + class + TTL + RDLENGTH

	numNames := int(data[offset])
	offset++

	names := make([]string, 0, numNames)
	for i := 0; i < numNames && offset+nbnsNameEntrySize <= len(data); i++ {
		name := strings.TrimRight(string(data[offset:offset+nbnsNameLen]), " \x00")
		suffix := data[offset+nbnsNameLen]
		flags := binary.BigEndian.Uint16(data[offset+nbnsNameLen+1 : offset+nbnsNameLen+3])
		offset += nbnsNameEntrySize

		// Keep active unique names: workstation (0x00), messenger (0x03)
		// and file-server (0x20) suffixes carry the host name.
		if name == "" || flags&nbnsFlagActive == 0 {
			continue
		}
		if suffix != 0x00 && suffix != 0x03 && suffix != 0x20 {
			continue
		}
		names = append(names, name)
	}
	return uniqueStrings(names)
}

// skipEncodedName advances past a DNS-style name starting at offset,
// handling both label sequences and 2-byte compression pointers. Returns -1
// when the packet is truncated.
func skipEncodedName(data []byte, offset int) int {
	for offset < len(data) {
		length := int(data[offset])
		switch {
		case length == 0:
			return offset + 1
		case length&0xc0 == 0xc0: // compression pointer
			return offset + 2
		default:
			offset += 1 + length
		}
	}
	return -1
}
