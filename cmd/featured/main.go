package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/mlfeatures/internal/dataset"
	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/logging"
	"github.com/danielpatrickdp/mlfeatures/internal/rpc"
	"google.golang.org/grpc"
)

// #region main
func main() {
	addr := envOr("FEATURED_ADDR", "localhost:50061")
	dbPath := os.Getenv("FEATURED_DB")

	var srv *rpc.Server
	if dbPath != "" {
		store, err := dataset.NewStore(dbPath)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer store.Close()
		if err := logging.EnsureSchema(store.DB()); err != nil {
			log.Fatalf("failed to create extraction log: %v", err)
		}
		srv = rpc.NewServer(features.NewRegistry(), store.DB())
	} else {
		srv = rpc.NewServer(features.NewRegistry(), nil)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", addr, err)
	}

	gs := grpc.NewServer()
	srv.Register(gs)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		gs.GracefulStop()
	}()

	log.Printf("feature service listening on %s (db: %q)", addr, dbPath)
	if err := gs.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers
