package rpc

import (
	"errors"
	"net"
	"net/rpc"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
)

type TcpServer struct {
	address  string
	listener *net.TCPListener
	object   any
	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	Logger bslogger.Logger
	Name   string
}

func NewTcpServer(object any, address string, name string) *TcpServer {
	return &TcpServer{
		address:  address,
		object:   object,
		shutdown: make(chan struct{}),
		Logger:   bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:     name,
	}
}

func (ts *TcpServer) Run() error {
	handler := rpc.NewServer()
	err := handler.Register(ts.object)
	if err != nil {
		ts.Logger.Error("Registering object")
		return err
	}

	tcpAddress, err := net.ResolveTCPAddr("tcp", ts.address)
	if err != nil {
		ts.Logger.Errorf("Resolving tcp address %s", ts.address)
		return err
	}

	ts.listener, err = net.ListenTCP("tcp", tcpAddress)
	if err != nil {
		ts.Logger.Errorf("Listening at address %s", ts.address)
		return err
	}
	ts.address = ts.listener.Addr().String()

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		for {
			select {
			case <-ts.shutdown:
				if err := ts.listener.Close(); err != nil {
					ts.Logger.Infof("Server closed connection to client - %s", err)
				}
				return
			default:
				// Poll so a shutdown is noticed
				ts.listener.SetDeadline(time.Now().Add(time.Second))
			}

			conn, err := ts.listener.Accept()
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				ts.Logger.Warningf("Accepting connection at address %s - %s", ts.address, err)
				continue
			}

			ts.Logger.Infof("Server opened connection to client at address %s", conn.RemoteAddr())
			go handler.ServeConn(conn)
		}
	}()

	ts.Logger.Infof("Running server at address %s", ts.address)
	return nil
}

func (ts *TcpServer) Stop() error {
	ts.once.Do(func() {
		ts.Logger.Infof("Shutting down server at address %s", ts.address)
		close(ts.shutdown)
	})
	return nil
}

// Wait blocks until the server stopped accepting connections.
func (ts *TcpServer) Wait() {
	ts.wg.Wait()
}

// Address is the address the server listens on once it runs.
func (ts *TcpServer) Address() string {
	return ts.address
}
