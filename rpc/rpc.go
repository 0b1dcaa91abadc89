// Package rpc wraps net/rpc servers and clients for the tcp and http
// transports.
package rpc

import "fmt"

type Transport string

const (
	TCP  Transport = "tcp"
	HTTP Transport = "http"
)

type Server interface {
	Run() error
	Stop() error
	Wait()
	Address() string
}

type Client interface {
	Connect() error
	Call(method string, request any, reply any) error
	Disconnect() error
	Expect(message string)
	Address() string
}

// NewServer registers object under its type name on a server of the given
// transport listening at address. The server starts on Run.
func NewServer(transport Transport, object any, address string, name string) (Server, error) {
	switch transport {
	case TCP, "":
		return NewTcpServer(object, address, name), nil
	case HTTP:
		return NewHttpServer(object, address, name), nil
	}
	return nil, fmt.Errorf("unknown transport %q", transport)
}

// NewClient returns an unconnected client for the server at address.
func NewClient(transport Transport, address string, name string) (Client, error) {
	switch transport {
	case TCP, "":
		return NewTcpClient(address, name), nil
	case HTTP:
		return NewHttpClient(address, name), nil
	}
	return nil, fmt.Errorf("unknown transport %q", transport)
}
