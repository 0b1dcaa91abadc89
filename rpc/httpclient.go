package rpc

import (
	"errors"
	"fmt"
	"net/rpc"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
)

type HttpClient struct {
	client        *rpc.Client
	expected      map[string]bool
	mutex         sync.Mutex
	serverAddress string

	Logger bslogger.Logger
	Name   string
}

func NewHttpClient(serverAddress string, name string) *HttpClient {
	return &HttpClient{
		expected:      make(map[string]bool),
		serverAddress: serverAddress,
		Logger:        bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:          name,
	}
}

// Expect stops an error with this message from being logged by Call. It is
// still returned.
func (hc *HttpClient) Expect(message string) {
	hc.mutex.Lock()
	hc.expected[message] = true
	hc.mutex.Unlock()
}

func (hc *HttpClient) Connect() error {
	hc.mutex.Lock()
	defer hc.mutex.Unlock()
	if hc.client != nil {
		hc.Logger.Warningf("Already connected to server at address %s", hc.serverAddress)
		return nil
	}

	var err error
	hc.client, err = rpc.DialHTTP("tcp", hc.serverAddress)
	if err != nil {
		hc.Logger.Errorf("Error connecting to server at address %s : %s", hc.serverAddress, err)
		return err
	}
	hc.Logger.Infof("Connected to server at %s", hc.serverAddress)
	return nil
}

func (hc *HttpClient) Call(method string, request any, reply any) error {
	hc.mutex.Lock()
	client := hc.client
	hc.mutex.Unlock()
	if client == nil {
		message := fmt.Sprintf("Not connected to server at address: %s, method: %s", hc.serverAddress, method)
		hc.Logger.Error(message)
		return errors.New(message)
	}

	err := client.Call(method, request, reply)
	if err != nil {
		hc.mutex.Lock()
		expected := hc.expected[err.Error()]
		hc.mutex.Unlock()
		if !expected {
			hc.Logger.Errorf("Calling server at address %s : method %s - %s", hc.serverAddress, method, err)
		}
		return err
	}
	hc.Logger.Debugf("Calling server %s", method)
	return nil
}

func (hc *HttpClient) Disconnect() error {
	hc.mutex.Lock()
	defer hc.mutex.Unlock()
	if hc.client == nil {
		message := fmt.Sprintf("Already disconnected from server at address %s", hc.serverAddress)
		hc.Logger.Warning(message)
		return errors.New(message)
	}

	err := hc.client.Close()
	hc.client = nil
	if err != nil {
		hc.Logger.Errorf("Disconnecting from server at address %s", hc.serverAddress)
		return err
	}
	hc.Logger.Infof("Disconnected from server at %s", hc.serverAddress)
	return nil
}

func (hc *HttpClient) Address() string {
	return hc.serverAddress
}
