package scan

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/endobit/oui"
)

// lookupMACAddress finds the MAC the kernel already learned for addr. Probing
// a host populates the ARP cache as a side effect, so by the time enrichment
// runs the entry is usually present.
func lookupMACAddress(ctx context.Context, addr string) string {
	if mac := macFromARPTable(addr); mac != "" {
		return mac
	}
	return macFromARPCommand(ctx, addr)
}

func macFromARPTable(addr string) string {
	data, err := os.ReadFile("/proc/net/arp")
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines[1:] {
		fields := whitespacePattern.Split(strings.TrimSpace(line), -1)
		if len(fields) < 4 {
			continue
		}
		if fields[0] == addr {
			if mac := normaliseMAC(fields[3]); mac != "" {
				return mac
			}
		}
	}
	return ""
}

func macFromARPCommand(ctx context.Context, addr string) string {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "arp", "-a", addr)
	} else {
		cmd = exec.CommandContext(ctx, "arp", "-n", addr)
	}
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return normaliseMAC(macLinePattern.FindString(string(output)))
}

func vendorForMAC(mac string) string {
	if mac == "" {
		return ""
	}
	return oui.Vendor(strings.ToLower(mac))
}
