package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/orderapi"
)

func TestReadConfig(t *testing.T) {
	env := map[string]string{
		"ORDER_STUB_HTTP_ADDR": "127.0.0.1:18081",
		"ORDER_STUB_LATENCY":   "250ms",
		"ORDER_STUB_FAIL":      "Reject",
	}
	cfg, err := readConfig(func(key string) string { return env[key] })
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:18081", cfg.httpAddr)
	require.Equal(t, ":50051", cfg.grpcAddr)
	require.Equal(t, 250*time.Millisecond, cfg.latency)
	require.ErrorIs(t, cfg.failWith, domain.ErrOrderRejected)
}

func TestReadConfig_Errors(t *testing.T) {
	for _, env := range []map[string]string{
		{"ORDER_STUB_LATENCY": "slow"},
		{"ORDER_STUB_LATENCY": "-1s"},
		{"ORDER_STUB_FAIL": "sometimes"},
	} {
		_, err := readConfig(func(key string) string { return env[key] })
		require.Error(t, err, "env %v", env)
	}
}

func TestParseFailure(t *testing.T) {
	tests := []struct {
		mode string
		want error
	}{
		{"", nil},
		{"none", nil},
		{"reject", domain.ErrOrderRejected},
		{" UNAVAILABLE ", domain.ErrOrderNetwork},
	}
	for _, tt := range tests {
		got, err := parseFailure(tt.mode)
		require.NoError(t, err)
		require.Equal(t, tt.want, got, "mode %q", tt.mode)
	}
}

func TestRun_ServesBothTransports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrs := make(chan [2]string, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, config{httpAddr: "127.0.0.1:0", grpcAddr: "127.0.0.1:0", firstID: 500}, func(httpAddr, grpcAddr string) {
			addrs <- [2]string{httpAddr, grpcAddr}
		})
	}()

	var httpAddr, grpcAddr string
	select {
	case a := <-addrs:
		httpAddr, grpcAddr = a[0], a[1]
	case err := <-done:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("order-stub did not start")
	}

	req := domain.OrderRequest{
		IdempotencyKey: "attempt-1",
		Customer:       domain.Identity{UserID: "u-1"},
		Lines:          []domain.OrderLine{{MenuItemID: 101, Quantity: 2}},
	}

	httpClient, err := orderapi.NewHTTPClient("http://"+httpAddr, &http.Client{Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	viaHTTP, err := httpClient.CreateOrder(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "500", viaHTTP.OrderID)

	conn, err := orderapi.DialGRPC(grpcAddr)
	require.NoError(t, err)
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(ctx, 2*time.Second)
	defer callCancel()
	viaGRPC, err := orderapi.NewGRPCClient(conn, nil).CreateOrder(callCtx, req)
	require.NoError(t, err)
	require.Equal(t, viaHTTP.OrderID, viaGRPC.OrderID, "same idempotency key must return the same order")

	cancel()
	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled), "unexpected run error: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("order-stub did not stop")
	}
}
