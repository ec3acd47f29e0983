package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	concessionsv1 "github.com/vladislavdragonenkov/concessions/proto/concessions/v1"
)

const idempotencyHeader = "idempotency-key"

type loadMode string

const (
	// modeBrowse: открыть корзину, набрать позиции, удалить одну и закрыть.
	modeBrowse loadMode = "browse"
	// modeCheckout: полный путь зрителя до чека.
	modeCheckout loadMode = "checkout"
	// modeCheckoutRetry: checkout повторяется с тем же ключом и должен вернуть тот же чек.
	modeCheckoutRetry loadMode = "checkout-retry"
)

type config struct {
	addr        string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	items       int
	seatPrefix  string
	outputPath  string
}

func parseConfig(fs *flag.FlagSet, args []string) (config, error) {
	var (
		cfg           config
		modeValue     string
		timeoutValue  string
		durationValue string
	)

	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.IntVar(&cfg.connections, "connections", 20, "number of gRPC client connections")
	fs.StringVar(&timeoutValue, "timeout", "5s", "per-RPC timeout")
	fs.StringVar(&modeValue, "mode", string(modeCheckout), "load mode: browse | checkout | checkout-retry")
	fs.IntVar(&cfg.items, "items", 3, "menu items added to every cart")
	fs.StringVar(&cfg.seatPrefix, "seat-prefix", "Section 101", "seat number prefix")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	if cfg.mode, err = parseMode(modeValue); err != nil {
		return cfg, err
	}

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.items <= 0:
		return cfg, errors.New("items must be > 0")
	case strings.TrimSpace(cfg.seatPrefix) == "":
		return cfg, errors.New("seat-prefix is required")
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeBrowse, modeCheckout, modeCheckoutRetry:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	clients := make([]concessionsv1.ConcessionsServiceClient, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to create grpc client connection: %v\n", dialErr)
			os.Exit(1)
		}
		conns = append(conns, conn)
		clients = append(clients, concessionsv1.NewConcessionsServiceClient(conn))
	}
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	result, err := runLoad(cfg, clients, os.Stdout)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}
	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// runLoad загружает меню и прогоняет сценарии на пуле воркеров.
func runLoad(cfg config, clients []concessionsv1.ConcessionsServiceClient, out io.Writer) (report, error) {
	if len(clients) == 0 {
		return report{}, errors.New("no grpc clients")
	}

	menuIDs, err := fetchMenu(clients[0], cfg.timeout)
	if err != nil {
		return report{}, fmt.Errorf("list menu: %w", err)
	}

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(cli concessionsv1.ConcessionsServiceClient) {
			defer wg.Done()
			for id := range jobs {
				_ = runScenario(cli, cfg, menuIDs, id, runID, col)
			}
		}(clients[workerID%len(clients)])
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	printReport(out, result, cfg)
	return result, nil
}

func fetchMenu(client concessionsv1.ConcessionsServiceClient, timeout time.Duration) ([]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.ListMenu(ctx, &concessionsv1.ListMenuRequest{})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(resp.GetItems()))
	for _, item := range resp.GetItems() {
		ids = append(ids, item.GetId())
	}
	if len(ids) == 0 {
		return nil, errors.New("menu is empty")
	}
	return ids, nil
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}

		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

func runScenario(
	client concessionsv1.ConcessionsServiceClient,
	cfg config,
	menuIDs []int64,
	index int,
	runID string,
	col *collector,
) (err error) {
	scenarioStart := time.Now()
	defer func() {
		col.record(scenarioMethod, time.Since(scenarioStart), grpcCode(err))
	}()

	rpc := rpcCaller{client: client, timeout: cfg.timeout, col: col}

	opened, err := rpc.openCart()
	if err != nil {
		return err
	}
	cartID := opened.GetCart().GetId()
	if cartID == "" {
		return status.Error(codes.Internal, "open cart returned empty cart id")
	}
	defer func() {
		if closeErr := rpc.closeCart(cartID); err == nil {
			err = closeErr
		}
	}()

	for i := 0; i < cfg.items; i++ {
		menuID := menuIDs[(index+i)%len(menuIDs)]
		if _, err = rpc.addItem(cartID, menuID); err != nil {
			return err
		}
	}

	if cfg.mode == modeBrowse {
		_, err = rpc.removeItem(cartID, int32(cfg.items-1))
		return err
	}

	seat := fmt.Sprintf("%s, Row %c, Seat %d", cfg.seatPrefix, 'A'+rune(index%26), index%30+1)
	if err = rpc.setSeat(cartID, seat); err != nil {
		return err
	}

	key := fmt.Sprintf("lt-checkout-%s-%d", runID, index)
	first, err := rpc.checkout(cartID, key)
	if err != nil {
		return err
	}
	col.recordReceipt(first.GetReceipt().GetTotal())

	if cfg.mode == modeCheckoutRetry {
		replayed, retryErr := rpc.checkout(cartID, key)
		if retryErr != nil {
			return retryErr
		}
		if replayed.GetReceipt().GetId() != first.GetReceipt().GetId() {
			return status.Error(codes.DataLoss, "checkout retry returned a different receipt")
		}
	}
	return nil
}

// rpcCaller выполняет RPC с таймаутом и записывает латентность в collector.
type rpcCaller struct {
	client  concessionsv1.ConcessionsServiceClient
	timeout time.Duration
	col     *collector
}

func (r rpcCaller) call(method string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := fn(ctx)
	r.col.record(method, time.Since(start), grpcCode(err))
	return err
}

func (r rpcCaller) openCart() (resp *concessionsv1.OpenCartResponse, err error) {
	err = r.call("OpenCart", func(ctx context.Context) error {
		resp, err = r.client.OpenCart(ctx, &concessionsv1.OpenCartRequest{})
		return err
	})
	return resp, err
}

func (r rpcCaller) addItem(cartID string, menuID int64) (resp *concessionsv1.AddItemResponse, err error) {
	err = r.call("AddItem", func(ctx context.Context) error {
		resp, err = r.client.AddItem(ctx, &concessionsv1.AddItemRequest{CartId: cartID, MenuItemId: menuID})
		return err
	})
	return resp, err
}

func (r rpcCaller) removeItem(cartID string, index int32) (resp *concessionsv1.RemoveItemResponse, err error) {
	err = r.call("RemoveItem", func(ctx context.Context) error {
		resp, err = r.client.RemoveItem(ctx, &concessionsv1.RemoveItemRequest{CartId: cartID, Index: index})
		return err
	})
	return resp, err
}

func (r rpcCaller) setSeat(cartID, seat string) error {
	return r.call("SetSeatNumber", func(ctx context.Context) error {
		_, err := r.client.SetSeatNumber(ctx, &concessionsv1.SetSeatNumberRequest{CartId: cartID, SeatNumber: seat})
		return err
	})
}

func (r rpcCaller) checkout(cartID, key string) (resp *concessionsv1.CheckoutResponse, err error) {
	err = r.call("Checkout", func(ctx context.Context) error {
		ctx = metadata.AppendToOutgoingContext(ctx, idempotencyHeader, key)
		resp, err = r.client.Checkout(ctx, &concessionsv1.CheckoutRequest{CartId: cartID})
		return err
	})
	return resp, err
}

func (r rpcCaller) closeCart(cartID string) error {
	return r.call("CloseCart", func(ctx context.Context) error {
		_, err := r.client.CloseCart(ctx, &concessionsv1.CloseCartRequest{CartId: cartID})
		return err
	})
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}
