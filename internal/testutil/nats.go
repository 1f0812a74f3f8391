package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// StartEmbeddedNATS runs an in-process NATS server on a random port and
// returns a connected client. Both are shut down when the test ends.
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:  "127.0.0.1",
		Port:  -1,
		NoLog: true,
	})
	if err != nil {
		t.Fatalf("create embedded nats server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded nats server not ready")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Timeout(2*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("connect to embedded nats server: %v", err)
	}
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns, nc
}
