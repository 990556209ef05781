// verify_compatibility starts a built server and checks that HTTP and gRPC
// clients see the same keyspace and the same eviction decisions.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	grpcapi "adaptive-cache-service/internal/grpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	httpBase = "http://localhost:8090"
	grpcAddr = "localhost:50055"
)

func main() {
	// 1. Start server
	log.Println("Starting server...")
	cmd := exec.Command("./server", "serve",
		"--http-addr", ":8090", "--grpc-addr", ":50055",
		"--policy", "lru", "--window", "2")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
	}()

	time.Sleep(2 * time.Second)

	// 2. HTTP
	log.Println("Testing HTTP API...")
	mustEqual(httpCommand("SET http_key http_val"), "OK")
	mustEqual(httpCommand("GET http_key"), "http_val")
	log.Println("✅ HTTP API Verified")

	// 3. gRPC
	log.Println("Testing gRPC API...")
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect to gRPC: %v", err)
	}
	defer conn.Close()
	client := grpcapi.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := client.Execute(ctx, "SET grpc_key grpc_val")
	if err != nil {
		log.Fatalf("gRPC SET failed: %v", err)
	}
	mustEqual(reply, "OK")
	log.Println("✅ gRPC API Verified")

	// 4. Cross-protocol: http_key is the least recently used of three keys
	// in a window of two, so the next write evicts it.
	log.Println("Testing Cross-Protocol Eviction...")
	var header metadata.MD
	if _, err := client.Execute(ctx, "SET third 3", grpc.Header(&header)); err != nil {
		log.Fatalf("gRPC SET failed: %v", err)
	}
	mustEqual(strings.Join(header.Get(grpcapi.EvictedKeysHeader), ","), "http_key")
	mustEqual(httpCommand("GET http_key"), "(nil)")
	mustEqual(httpCommand("GET grpc_key"), "grpc_val")
	log.Println("✅ Cross-Protocol Verified")
}

func httpCommand(line string) string {
	body, _ := json.Marshal(map[string]string{"command": line})
	resp, err := http.Post(httpBase+"/", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("HTTP %q failed: %v", line, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("HTTP %q: status code %d", line, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("HTTP %q: %v", line, err)
	}
	return strings.TrimSpace(string(b))
}

func mustEqual(got, want string) {
	if got != want {
		log.Fatalf("mismatch: expected %q, got %q", want, got)
	}
}
