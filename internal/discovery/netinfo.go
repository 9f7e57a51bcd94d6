package discovery

import (
	"net"
)

// Fallback source identity embedded in the search request when no usable
// interface is found. Devices answer to broadcast either way.
var (
	FallbackSourceMAC = net.HardwareAddr{0xa0, 0x29, 0x19, 0x3e, 0xab, 0x91}
	FallbackSourceIP  = net.IPv4(192, 168, 1, 100).To4()
)

// InterfaceInfo describes one local IPv4 address.
type InterfaceInfo struct {
	Name      string `json:"name"`
	IP        string `json:"ip"`
	Broadcast string `json:"broadcast,omitempty"`
	MAC       string `json:"mac,omitempty"`
}

// AllInterfaces is the wildcard entry listed first by Interfaces.
var AllInterfaces = InterfaceInfo{Name: "All Interfaces", IP: "0.0.0.0", Broadcast: "255.255.255.255"}

type ifaceAddr struct {
	iface net.Interface
	ipnet *net.IPNet
}

// systemAddrs lists IPv4 addresses of up, non-loopback interfaces.
func systemAddrs() ([]ifaceAddr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []ifaceAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil || ipnet.IP.IsLoopback() {
				continue
			}
			out = append(out, ifaceAddr{iface: iface, ipnet: ipnet})
		}
	}
	return out, nil
}

// Interfaces lists the IPv4 addresses discovery can bind to. The wildcard
// entry always comes first.
func Interfaces() []InterfaceInfo {
	list := []InterfaceInfo{AllInterfaces}
	addrs, err := systemAddrs()
	if err != nil {
		return list
	}
	for _, a := range addrs {
		list = append(list, InterfaceInfo{
			Name:      a.iface.Name,
			IP:        a.ipnet.IP.To4().String(),
			Broadcast: directedBroadcast(a.ipnet).String(),
			MAC:       a.iface.HardwareAddr.String(),
		})
	}
	return list
}

// ResolveInterface maps an interface name or IPv4 address to the bind
// address. Empty input means all interfaces.
func ResolveInterface(nameOrIP string) (string, error) {
	if nameOrIP == "" || nameOrIP == AllInterfaces.IP {
		return AllInterfaces.IP, nil
	}
	if ip := net.ParseIP(nameOrIP); ip != nil {
		if ip.To4() == nil {
			return "", &Error{Type: ErrTypeInterface, Message: "not an IPv4 address: " + nameOrIP}
		}
		return ip.To4().String(), nil
	}

	iface, err := net.InterfaceByName(nameOrIP)
	if err != nil {
		return "", &Error{Type: ErrTypeInterface, Message: "unknown interface " + nameOrIP, Err: err}
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", &Error{Type: ErrTypeInterface, Message: "cannot read addresses of " + nameOrIP, Err: err}
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return ipnet.IP.To4().String(), nil
		}
	}
	return "", &Error{Type: ErrTypeInterface, Message: "no IPv4 address on interface " + nameOrIP}
}

// sourceIdentity picks the MAC and IP embedded in the search request. With
// a specific bind address the owning interface is used; otherwise the first
// up, non-loopback IPv4 interface that has a hardware address.
func sourceIdentity(addrs []ifaceAddr, bindAddress string) (net.HardwareAddr, net.IP) {
	bind := net.ParseIP(bindAddress)
	specific := bind != nil && !bind.IsUnspecified()

	for _, a := range addrs {
		if len(a.iface.HardwareAddr) != 6 {
			continue
		}
		if specific && !a.ipnet.IP.Equal(bind) {
			continue
		}
		return a.iface.HardwareAddr, a.ipnet.IP.To4()
	}

	if specific {
		if ip4 := bind.To4(); ip4 != nil {
			return FallbackSourceMAC, ip4
		}
	}
	return FallbackSourceMAC, FallbackSourceIP
}

// LocalSource returns the source identity for bindAddress using the
// system's interfaces.
func LocalSource(bindAddress string) (net.HardwareAddr, net.IP) {
	addrs, err := systemAddrs()
	if err != nil {
		return FallbackSourceMAC, FallbackSourceIP
	}
	return sourceIdentity(addrs, bindAddress)
}

func directedBroadcast(ipnet *net.IPNet) net.IP {
	ip := ipnet.IP.To4()
	mask := ipnet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	out := make(net.IP, 4)
	for i := range ip {
		out[i] = ip[i] | ^mask[i]
	}
	return out
}
