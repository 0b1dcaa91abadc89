package misc

import (
	"net"

	"github.com/BrugadaSyndrome/bslogger"
)

// Nothing is the empty request or reply of an RPC call.
type Nothing struct{}

func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}

	port := l.Addr().(*net.TCPAddr).Port

	err = l.Close()
	if err != nil {
		return 0, err
	}

	return port, nil
}

// GetLocalAddress returns the IPv4 address of the first non-loopback
// interface that is up, or the loopback address when there is none.
func GetLocalAddress() string {
	logger := bslogger.NewLogger("Network", bslogger.Normal, nil)

	networkInterfaces, err := net.Interfaces()
	if err != nil {
		logger.Warningf("Failed to list network interfaces on this device - %s", err)
		return "127.0.0.1"
	}

	for _, elt := range networkInterfaces {
		if elt.Flags&net.FlagLoopback != 0 || elt.Flags&net.FlagUp == 0 {
			continue
		}
		addresses, err := elt.Addrs()
		if err != nil {
			logger.Warningf("Failed to get an address from the network interface %s", elt.Name)
			continue
		}
		for _, addr := range addresses {
			if ip, ok := addr.(*net.IPNet); ok {
				if ip4 := ip.IP.To4(); len(ip4) == net.IPv4len {
					return ip4.String()
				}
			}
		}
	}

	logger.Warning("Failed to find a non-loopback interface with valid address on this device, using 127.0.0.1")
	return "127.0.0.1"
}
