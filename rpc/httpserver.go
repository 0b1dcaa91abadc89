package rpc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
)

type HttpServer struct {
	address  string
	listener net.Listener
	mux      *http.ServeMux
	object   any
	server   *http.Server
	wg       sync.WaitGroup

	Logger bslogger.Logger
	Name   string
}

func NewHttpServer(object any, address string, name string) *HttpServer {
	return &HttpServer{
		address: address,
		mux:     http.NewServeMux(),
		object:  object,
		Logger:  bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:    name,
	}
}

func (hs *HttpServer) Run() error {
	handler := rpc.NewServer()
	err := handler.Register(hs.object)
	if err != nil {
		hs.Logger.Error("Registering object")
		return err
	}

	// rpc.Server only installs its handlers on http.DefaultServeMux
	// https://github.com/golang/go/issues/13395
	hs.mux.Handle(rpc.DefaultRPCPath, handler)

	hs.listener, err = net.Listen("tcp", hs.address)
	if err != nil {
		hs.Logger.Errorf("Listening at address %s", hs.address)
		return err
	}
	hs.address = hs.listener.Addr().String()

	hs.server = &http.Server{Addr: hs.address, Handler: hs.mux}
	hs.wg.Add(1)
	go func() {
		defer hs.wg.Done()
		if err := hs.server.Serve(hs.listener); !errors.Is(err, http.ErrServerClosed) {
			hs.Logger.Errorf("Error serving at address %s - %s", hs.address, err)
		}
	}()

	hs.Logger.Infof("Running server at address %s", hs.address)
	return nil
}

func (hs *HttpServer) Stop() error {
	if hs.server == nil {
		return errors.New("server is not running")
	}
	if err := hs.server.Shutdown(context.Background()); err != nil {
		hs.Logger.Errorf("Shutting down server at address %s", hs.address)
		return err
	}
	hs.Logger.Infof("Shutting down server at address %s", hs.address)
	return nil
}

// Wait blocks until the server stopped serving.
func (hs *HttpServer) Wait() {
	hs.wg.Wait()
}

// Address is the address the server listens on once it runs.
func (hs *HttpServer) Address() string {
	return hs.address
}
