package scan

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	resolveTimeout = 2 * time.Second
	enrichTimeout  = 4 * time.Second
	mdnsTimeout    = 2 * time.Second
)

// resolveHostname reverse-resolves addr and returns the first name that is
// not just the literal address, without the trailing dot. Failures and empty
// answers return "": reverse lookups routinely fail on networks without PTR
// records, so that is data rather than an error.
func resolveHostname(ctx context.Context, addr string) string {
	lookupCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(lookupCtx, addr)
	if err != nil {
		return ""
	}
	for _, name := range names {
		name = strings.TrimSuffix(strings.TrimSpace(name), ".")
		if name != "" && !strings.EqualFold(name, addr) {
			return name
		}
	}
	return ""
}

// enrichRecord adds best-effort identity details for a host that answered:
// advertised names from mDNS and NetBIOS plus the ARP-table MAC address and
// its vendor. Every lookup failure simply leaves its field empty.
func enrichRecord(ctx context.Context, record *DeviceRecord) {
	enrichCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		mdnsNames []string
		nbNames   []string
		mac       string
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		mdnsNames = lookupMDNS(enrichCtx, record.Address)
	}()
	go func() {
		defer wg.Done()
		nbNames = lookupNetBIOS(enrichCtx, record.Address)
	}()
	go func() {
		defer wg.Done()
		mac = lookupMACAddress(enrichCtx, record.Address)
	}()
	wg.Wait()

	record.OtherNames = uniqueStrings(append(mdnsNames, nbNames...))
	if mac != "" {
		record.MacAddress = mac
		record.Manufacturer = vendorForMAC(mac)
	}
	if record.Hostname == UnknownHostname && len(record.OtherNames) > 0 {
		record.Hostname = record.OtherNames[0]
	}
}

// mdnsServiceTypes is a short list of types that home and office devices
// commonly advertise. Browsing a handful keeps the per-host budget bounded.
var mdnsServiceTypes = []string{
	"_services._dns-sd._udp",
	"_workstation._tcp",
	"_device-info._tcp",
	"_http._tcp",
	"_ssh._tcp",
	"_smb._tcp",
	"_airplay._tcp",
	"_googlecast._tcp",
	"_printer._tcp",
}

// lookupMDNS browses common mDNS service types and collects the instance and
// host names advertised by the given address.
func lookupMDNS(ctx context.Context, addr string) []string {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil
	}

	browseCtx, cancel := context.WithTimeout(ctx, mdnsTimeout)
	defer cancel()

	var mu sync.Mutex
	found := make(map[string]struct{})
	collect := func(entry *zeroconf.ServiceEntry) {
		mu.Lock()
		defer mu.Unlock()
		if entry.Instance != "" {
			found[entry.Instance] = struct{}{}
		}
		if host := strings.TrimSuffix(entry.HostName, "."); host != "" {
			found[host] = struct{}{}
		}
	}

	var wg sync.WaitGroup
	for _, serviceType := range mdnsServiceTypes {
		entries := make(chan *zeroconf.ServiceEntry, 8)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entries {
				for _, ipv4 := range entry.AddrIPv4 {
					if ipv4.String() == addr {
						collect(entry)
						break
					}
				}
			}
		}()
		if err := resolver.Browse(browseCtx, serviceType, "local.", entries); err != nil {
			// Browse never took ownership of the channel, so the
			// reader must be released here.
			close(entries)
		}
	}

	<-browseCtx.Done()
	wg.Wait()

	if len(found) == 0 {
		return nil
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	return uniqueStrings(names)
}
