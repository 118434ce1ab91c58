// Command vendor-probe checks connectivity to every external dependency of
// the API server: the payment gateway, the eSIM vendor, the SMTP relay and
// PostgreSQL. It is meant for deploy-time smoke checks; it exits non-zero
// when any probe fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	appkg "github.com/ajayishaq/rromisim/internal/app"
	"github.com/ajayishaq/rromisim/internal/esimaccess"
	"github.com/ajayishaq/rromisim/internal/paystack"
	"github.com/ajayishaq/rromisim/internal/repository"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "per-probe timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := appkg.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, timeout); err != nil {
		slog.Error("probe failed", "error", err)
		os.Exit(1)
	}
	slog.Info("all probes passed")
}

func run(ctx context.Context, cfg *appkg.Config, timeout time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		url := cfg.Paystack.BaseURL
		if url == "" {
			url = paystack.DefaultBaseURL
		}
		return probeHTTP(ctx, "payment gateway", url, timeout)
	})
	g.Go(func() error {
		url := cfg.ESIM.BaseURL
		if url == "" {
			url = esimaccess.DefaultBaseURL
		}
		return probeHTTP(ctx, "esim vendor", url, timeout)
	})
	g.Go(func() error {
		addr := net.JoinHostPort(cfg.SMTP.Host, fmt.Sprint(cfg.SMTP.Port))
		return probeTCP(ctx, "smtp", addr, timeout)
	})
	g.Go(func() error {
		return probeDatabase(ctx, cfg.DatabaseURL, timeout)
	})

	return g.Wait()
}

// probeHTTP considers any HTTP response a success. Vendors answer unauthenticated
// requests with 4xx, which still proves the endpoint is reachable.
func probeHTTP(ctx context.Context, name, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", name)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", name, url)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Info("probe ok", "target", name, "url", url, "status", resp.StatusCode)
	return nil
}

func probeTCP(ctx context.Context, name, addr string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", name, addr)
	}
	_ = conn.Close()

	slog.Info("probe ok", "target", name, "addr", addr)
	return nil
}

func probeDatabase(ctx context.Context, databaseURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// A single connection is enough to prove the database is reachable.
	pool, err := repository.NewPool(ctx, repository.PoolConfig{
		URL:            databaseURL,
		MaxConns:       1,
		ConnectTimeout: timeout,
	})
	if err != nil {
		return errors.Wrap(err, "database: create pool")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return errors.Wrap(err, "database: ping")
	}

	slog.Info("probe ok", "target", "database")
	return nil
}
