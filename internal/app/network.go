package app

import "net"

// iface is the part of net.Interface used to pick a LAN address
type iface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// interfaceLister lists network interfaces; swapped out in tests
type interfaceLister interface {
	Interfaces() ([]iface, error)
}

type systemIface struct {
	*net.Interface
}

func (s systemIface) Flags() net.Flags {
	return s.Interface.Flags
}

type systemInterfaces struct{}

func (systemInterfaces) Interfaces() ([]iface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]iface, len(all))
	for i := range all {
		out[i] = systemIface{&all[i]}
	}
	return out, nil
}

// lanAddress picks the IPv4 address phones at the table can reach. Private
// addresses win over public ones; "localhost" is the last resort.
func lanAddress(lister interfaceLister) string {
	ifaces, err := lister.Interfaces()
	if err != nil {
		return "localhost"
	}

	var fallback string
	for _, ifc := range ifaces {
		flags := ifc.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ip := ipOf(addr).To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip.IsPrivate() {
				return ip.String()
			}
			if fallback == "" {
				fallback = ip.String()
			}
		}
	}

	if fallback != "" {
		return fallback
	}
	return "localhost"
}

func ipOf(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
