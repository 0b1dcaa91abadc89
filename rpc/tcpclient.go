package rpc

import (
	"errors"
	"fmt"
	"net/rpc"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
)

type TcpClient struct {
	client        *rpc.Client
	expected      map[string]bool
	mutex         sync.Mutex
	serverAddress string

	Logger bslogger.Logger
	Name   string
}

func NewTcpClient(serverAddress string, name string) *TcpClient {
	return &TcpClient{
		expected:      make(map[string]bool),
		serverAddress: serverAddress,
		Logger:        bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:          name,
	}
}

// Expect stops an error with this message from being logged by Call. It is
// still returned.
func (tc *TcpClient) Expect(message string) {
	tc.mutex.Lock()
	tc.expected[message] = true
	tc.mutex.Unlock()
}

func (tc *TcpClient) Connect() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	if tc.client != nil {
		tc.Logger.Warningf("Already connected to server at address %s", tc.serverAddress)
		return nil
	}

	var err error
	tc.client, err = rpc.Dial("tcp", tc.serverAddress)
	if err != nil {
		tc.Logger.Errorf("Connecting to server at address %s", tc.serverAddress)
		return err
	}
	tc.Logger.Infof("Connected to server at: %s", tc.serverAddress)
	return nil
}

func (tc *TcpClient) Call(method string, request any, reply any) error {
	tc.mutex.Lock()
	client := tc.client
	tc.mutex.Unlock()
	if client == nil {
		message := fmt.Sprintf("Not connected to server at address %s : method %s", tc.serverAddress, method)
		tc.Logger.Error(message)
		return errors.New(message)
	}

	err := client.Call(method, request, reply)
	if err != nil {
		tc.mutex.Lock()
		expected := tc.expected[err.Error()]
		tc.mutex.Unlock()
		if !expected {
			tc.Logger.Errorf("Calling server at address: %s, method: %s - %s", tc.serverAddress, method, err)
		}
		return err
	}
	tc.Logger.Debugf("Calling server [%s] %s", tc.serverAddress, method)
	return nil
}

func (tc *TcpClient) Disconnect() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	if tc.client == nil {
		message := fmt.Sprintf("Already disconnected from server at address %s", tc.serverAddress)
		tc.Logger.Warning(message)
		return errors.New(message)
	}

	err := tc.client.Close()
	tc.client = nil
	if err != nil {
		tc.Logger.Errorf("Disconnecting from server at address %s", tc.serverAddress)
		return err
	}
	tc.Logger.Infof("Disconnected from server at %s", tc.serverAddress)
	return nil
}

func (tc *TcpClient) Address() string {
	return tc.serverAddress
}
