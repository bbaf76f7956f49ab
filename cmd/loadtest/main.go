// Команда loadtest нагружает HTTP API корзины: наполнение корзины и оформление заказа
// в отдельных сессиях, с отчётом по латентности каждого шага.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	headerSessionID = "X-Session-Id"
	headerUserID    = "X-User-Id"
)

type loadMode string

const (
	modeCart     loadMode = "cart"
	modeCheckout loadMode = "checkout"
)

type menuRef struct {
	RestaurantID int64 `json:"restaurantId"`
	MenuItemID   int64 `json:"menuItemId"`
}

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	items       []menuRef
	userTag     string
	outputPath  string
}

func parseConfig(args []string) (config, error) {
	var (
		cfg       config
		modeValue string
		itemsRaw  string
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "cart API base URL")
	fs.IntVar(&cfg.total, "total", 400, "scenarios to run in count mode; caps duration mode when set explicitly")
	fs.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&modeValue, "mode", string(modeCheckout), "load mode: cart | checkout")
	fs.StringVar(&itemsRaw, "items", "1:101,1:102,2:201", "menu items to add, restaurantId:menuItemId comma-separated")
	fs.StringVar(&cfg.userTag, "user-tag", "load", "user id prefix for checkout")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	switch loadMode(strings.ToLower(strings.TrimSpace(modeValue))) {
	case modeCart:
		cfg.mode = modeCart
	case modeCheckout:
		cfg.mode = modeCheckout
	default:
		return config{}, fmt.Errorf("unsupported mode %q (use cart | checkout)", modeValue)
	}

	items, err := parseItems(itemsRaw)
	if err != nil {
		return config{}, err
	}
	cfg.items = items
	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")

	switch {
	case cfg.baseURL == "":
		return config{}, errors.New("base-url is required")
	case cfg.total <= 0:
		return config{}, errors.New("total must be > 0")
	case cfg.duration < 0:
		return config{}, errors.New("duration must be >= 0")
	case cfg.concurrency <= 0:
		return config{}, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return config{}, errors.New("timeout must be > 0")
	}
	return cfg, nil
}

func parseItems(raw string) ([]menuRef, error) {
	var items []menuRef
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		restaurant, item, ok := strings.Cut(chunk, ":")
		if !ok {
			return nil, fmt.Errorf("invalid item %q: want restaurantId:menuItemId", chunk)
		}
		restaurantID, err := strconv.ParseInt(restaurant, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid restaurant id in %q: %w", chunk, err)
		}
		itemID, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid menu item id in %q: %w", chunk, err)
		}
		items = append(items, menuRef{RestaurantID: restaurantID, MenuItemID: itemID})
	}
	if len(items) == 0 {
		return nil, errors.New("at least one item is required")
	}
	return items, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	client := &http.Client{Timeout: cfg.timeout}
	startedAt := time.Now()
	runID := strconv.FormatInt(startedAt.UnixNano(), 36)
	col := newCollector()

	runWorkers(cfg, func(index int) {
		_ = runScenario(context.Background(), client, cfg, index, runID, col)
	})

	result := col.buildReport(startedAt, time.Since(startedAt))
	printReport(os.Stdout, result, cfg)
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

func runWorkers(cfg config, scenario func(index int)) {
	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				scenario(index)
			}
		}()
	}
	dispatchJobs(jobs, cfg)
	wg.Wait()
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

// runScenario проходит один сценарий в новой сессии: добавить позиции, поменять
// количество первой, прочитать корзину и, в режиме checkout, оформить заказ.
func runScenario(ctx context.Context, client *http.Client, cfg config, index int, runID string, col *collector) (err error) {
	started := time.Now()
	defer func() {
		col.record(stepScenario, time.Since(started), 0, err == nil)
	}()

	sessionID := uuid.NewString()
	userID := fmt.Sprintf("%s-%s-%d", cfg.userTag, runID, index)

	for _, item := range cfg.items {
		if err := call(ctx, client, col, "add_item", http.MethodPost, cfg.baseURL+"/api/cart/items", sessionID, "", item, http.StatusOK); err != nil {
			return err
		}
	}

	first := cfg.items[0]
	quantityURL := fmt.Sprintf("%s/api/cart/items/%d", cfg.baseURL, first.MenuItemID)
	if err := call(ctx, client, col, "set_quantity", http.MethodPut, quantityURL, sessionID, "", map[string]int{"quantity": 2}, http.StatusOK); err != nil {
		return err
	}
	if err := call(ctx, client, col, "get_cart", http.MethodGet, cfg.baseURL+"/api/cart", sessionID, "", nil, http.StatusOK); err != nil {
		return err
	}

	if cfg.mode == modeCheckout {
		return call(ctx, client, col, "checkout", http.MethodPost, cfg.baseURL+"/api/cart/checkout", sessionID, userID, nil, http.StatusOK)
	}
	return nil
}

func call(
	ctx context.Context,
	client *http.Client,
	col *collector,
	step, method, url, sessionID, userID string,
	body any,
	wantStatus int,
) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set(headerSessionID, sessionID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		col.record(step, time.Since(started), 0, false)
		return fmt.Errorf("%s: %w", step, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	ok := resp.StatusCode == wantStatus
	col.record(step, time.Since(started), resp.StatusCode, ok)
	if !ok {
		return fmt.Errorf("%s: unexpected status %d", step, resp.StatusCode)
	}
	return nil
}

func runTarget(cfg config) string {
	if cfg.duration <= 0 {
		return fmt.Sprintf("count:%d", cfg.total)
	}
	if cfg.totalSet {
		return fmt.Sprintf("duration:%s,max-total:%d", cfg.duration, cfg.total)
	}
	return fmt.Sprintf("duration:%s", cfg.duration)
}
