package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	grpcapi "adaptive-cache-service/internal/grpc"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

var (
	execAddr    string
	execTimeout time.Duration
)

var execCmd = &cobra.Command{
	Use:   "exec [COMMAND...]",
	Short: "Send commands to a running server over gRPC",
	Long: `Send one command given as arguments, or read one command per line
from stdin when no arguments are given.

Examples:
  ledis exec RPUSH queue a b c
  printf 'SET a 1\nGET a\n' | ledis exec`,
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&execAddr, "addr", "", "server address (default: --grpc-addr on localhost)")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 5*time.Second, "per-command timeout")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	addr := execAddr
	if addr == "" {
		addr = cfg.GRPCAddr
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()
	client := grpcapi.NewClient(conn)

	if len(args) > 0 {
		return send(cmd.Context(), cmd.OutOrStdout(), client, strings.Join(args, " "))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := send(cmd.Context(), cmd.OutOrStdout(), client, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func send(ctx context.Context, out io.Writer, client *grpcapi.Client, line string) error {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	var header metadata.MD
	reply, err := client.Execute(ctx, line, grpc.Header(&header))
	if err != nil {
		return fmt.Errorf("executing %q: %w", line, err)
	}
	fmt.Fprintln(out, reply)
	if evicted := header.Get(grpcapi.EvictedKeysHeader); len(evicted) > 0 {
		fmt.Fprintf(os.Stderr, "evicted: %s\n", strings.Join(evicted, ","))
	}
	return nil
}
