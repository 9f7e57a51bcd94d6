package server

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/easyip/internal/version"
)

const (
	// ServiceType is the mDNS service the dashboard registers under.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."

	// DefaultBrowseTimeout bounds BrowseDashboards.
	DefaultBrowseTimeout = 3 * time.Second

	appTXT = "app=easyip"
)

// Dashboard is another easyip dashboard found on the network.
type Dashboard struct {
	Instance string            `json:"instance"`
	Hostname string            `json:"hostname"`
	IP       string            `json:"ip"`
	Port     int               `json:"port"`
	Metadata map[string]string `json:"metadata"`
}

// URL returns the dashboard's base URL.
func (d Dashboard) URL() string {
	return fmt.Sprintf("http://%s:%d/", d.IP, d.Port)
}

// Advertiser is a registered mDNS service.
type Advertiser struct {
	server *zeroconf.Server
}

// instanceName is the advertised name, unique per host.
func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return "easyip on " + host
}

// txtRecords describes the dashboard in its TXT record.
func txtRecords() []string {
	return []string{appTXT, "version=" + version.Version, "path=/"}
}

// Advertise registers the dashboard listening on port.
func Advertise(port int) (*Advertiser, error) {
	srv, err := zeroconf.Register(instanceName(), ServiceType, ServiceDomain, port, txtRecords(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertiser{server: srv}, nil
}

// Shutdown withdraws the registration.
func (a *Advertiser) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// BrowseDashboards looks for easyip dashboards until timeout or ctx ends.
func BrowseDashboards(ctx context.Context, timeout time.Duration) ([]Dashboard, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		wg     sync.WaitGroup
		found  []Dashboard
		seenAt = make(map[string]struct{})
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				d, ok := parseServiceEntry(entry)
				if !ok {
					continue
				}
				if _, dup := seenAt[d.Instance]; dup {
					continue
				}
				seenAt[d.Instance] = struct{}{}
				found = append(found, d)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		wg.Wait()
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	wg.Wait()
	return found, nil
}

// parseServiceEntry keeps only entries carrying the easyip TXT marker.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (Dashboard, bool) {
	if entry == nil {
		return Dashboard{}, false
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	if metadata["app"] != "easyip" {
		return Dashboard{}, false
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return Dashboard{}, false
	}

	return Dashboard{
		Instance: entry.Instance,
		Hostname: entry.HostName,
		IP:       ip,
		Port:     entry.Port,
		Metadata: metadata,
	}, true
}
