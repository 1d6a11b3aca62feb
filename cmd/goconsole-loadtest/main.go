package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/guard"
	"github.com/MrEthical07/goConsole/internal/devauthority"
	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
)

type options struct {
	consoles    int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
}

func main() {
	app := &cli.App{
		Name:  "goconsole-loadtest",
		Usage: "Drive many console sessions against an in-process dev authority",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "consoles", Value: 32, Usage: "number of signed-in consoles"},
			&cli.IntFlag{Name: "concurrency", Value: 64, Usage: "number of concurrent workers"},
			&cli.IntFlag{Name: "ops", Value: 20000, Usage: "operations per phase"},
			&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"REDIS_ADDR"}, Usage: "session store redis; miniredis when empty"},
			&cli.StringFlag{Name: "prefix", Value: "lt", Usage: "session key prefix"},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, options{
				consoles:    c.Int("consoles"),
				concurrency: c.Int("concurrency"),
				ops:         c.Int("ops"),
				redisAddr:   c.String("redis-addr"),
				prefix:      c.String("prefix"),
			})
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.consoles <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
		return errors.New("consoles, concurrency, and ops must be > 0")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if opts.redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start miniredis: %w", err)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{opts.redisAddr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", opts.redisAddr)
	}
	defer cleanup()

	authority, err := devauthority.New(devauthority.Config{})
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: authority.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	fmt.Printf("signing in %d consoles...\n", opts.consoles)
	startSeed := time.Now()
	consoles, err := signIn(ctx, client, "http://"+ln.Addr().String()+"/api", opts)
	defer func() {
		for _, c := range consoles {
			c.Close()
		}
	}()
	if err != nil {
		return err
	}
	fmt.Printf("signed in %s\n", time.Since(startSeed).Round(time.Millisecond))

	decideStats := runPhase(opts, consoles, func(c *goConsole.Console) error {
		d := guard.Decide(ctx, c, guard.Requirement{Permission: permission.UserRead})
		if d.Outcome != guard.OutcomeAllow {
			return fmt.Errorf("unexpected outcome %s", d.Outcome)
		}
		return nil
	})
	profileStats := runPhase(opts, consoles, func(c *goConsole.Console) error {
		var u session.User
		return c.Client().DoJSON(ctx, http.MethodGet, "/users/me", nil, &u)
	})
	refreshStats := runPhase(opts, consoles, func(c *goConsole.Console) error {
		return c.Refresh(ctx)
	})

	var retries uint64
	for _, c := range consoles {
		retries += c.MetricsSnapshot().Counters[goConsole.MetricAuthorizedRetry]
	}

	fmt.Println("---- results ----")
	printStats("decide", decideStats)
	printStats("profile", profileStats)
	printStats("refresh", refreshStats)
	fmt.Printf("authorized retries: %d, outstanding refresh grants: %d\n", retries, authority.ActiveRefreshGrants())
	return nil
}

func signIn(ctx context.Context, client redis.UniversalClient, baseURL string, opts options) ([]*goConsole.Console, error) {
	usernames := []string{"admin", "manager", "alice", "viewer"}
	consoles := make([]*goConsole.Console, 0, opts.consoles)
	for i := 0; i < opts.consoles; i++ {
		cfg := goConsole.DefaultConfig()
		cfg.Transport.BaseURL = baseURL
		cfg.Metrics.Enabled = true

		backend, err := session.NewRedisBackend(client, fmt.Sprintf("%s:%d", opts.prefix, i), time.Hour)
		if err != nil {
			return nil, err
		}
		c, err := goConsole.New().WithConfig(cfg).WithBackend(backend).Build()
		if err != nil {
			return nil, err
		}
		consoles = append(consoles, c)
		if err := c.Init(ctx); err != nil {
			return consoles, err
		}
		name := usernames[i%len(usernames)]
		if _, err := c.Login(ctx, goConsole.Credentials{Identifier: name, Secret: name + "-password"}); err != nil {
			return consoles, fmt.Errorf("login %s: %w", name, err)
		}
	}
	return consoles, nil
}

func runPhase(opts options, consoles []*goConsole.Console, op func(*goConsole.Console) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opts.ops {
					return
				}
				c := consoles[r.Intn(len(consoles))]
				t0 := time.Now()
				err := op(c)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
