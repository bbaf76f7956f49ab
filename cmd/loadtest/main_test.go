package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/foodhub/internal/cart"
	"github.com/vladislavdragonenkov/foodhub/internal/catalog"
	"github.com/vladislavdragonenkov/foodhub/internal/checkout"
	"github.com/vladislavdragonenkov/foodhub/internal/httpapi"
	"github.com/vladislavdragonenkov/foodhub/internal/identity"
	"github.com/vladislavdragonenkov/foodhub/internal/service/orderstub"
	"github.com/vladislavdragonenkov/foodhub/internal/session"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{"-base-url", "http://cart:8080/", "-mode", "CART", "-items", "1:101, 2:201", "-total", "10"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.baseURL != "http://cart:8080" {
		t.Fatalf("unexpected base url: %s", cfg.baseURL)
	}
	if cfg.mode != modeCart {
		t.Fatalf("unexpected mode: %s", cfg.mode)
	}
	if len(cfg.items) != 2 || cfg.items[1] != (menuRef{RestaurantID: 2, MenuItemID: 201}) {
		t.Fatalf("unexpected items: %+v", cfg.items)
	}
	if !cfg.totalSet || cfg.total != 10 {
		t.Fatalf("expected explicit total, got %+v", cfg)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"mode", []string{"-mode", "pay"}, "unsupported mode"},
		{"items format", []string{"-items", "101"}, "want restaurantId:menuItemId"},
		{"items number", []string{"-items", "x:101"}, "invalid restaurant id"},
		{"no items", []string{"-items", " , "}, "at least one item"},
		{"total", []string{"-total", "0"}, "total must be > 0"},
		{"concurrency", []string{"-concurrency", "0"}, "concurrency must be > 0"},
		{"timeout", []string{"-timeout", "0s"}, "timeout must be > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDispatchJobs(t *testing.T) {
	jobs := make(chan int, 10)
	dispatchJobs(jobs, config{total: 5})

	var got []int
	for job := range jobs {
		got = append(got, job)
	}
	if len(got) != 5 || got[4] != 4 {
		t.Fatalf("unexpected jobs: %v", got)
	}

	jobs = make(chan int, 100)
	dispatchJobs(jobs, config{total: 3, totalSet: true, duration: time.Second})
	count := 0
	for range jobs {
		count++
	}
	if count != 3 {
		t.Fatalf("explicit total must cap duration mode, got %d jobs", count)
	}
}

func TestCollectorReport(t *testing.T) {
	col := newCollector()
	col.record("add_item", 10*time.Millisecond, http.StatusOK, true)
	col.record("add_item", 30*time.Millisecond, http.StatusBadGateway, false)
	col.record("checkout", 5*time.Millisecond, 0, false)
	col.record(stepScenario, 50*time.Millisecond, 0, true)
	col.record(stepScenario, 70*time.Millisecond, 0, false)

	result := col.buildReport(time.Now(), 2*time.Second)

	if result.TotalScenarios != 2 || result.FailedScenarios != 1 || result.ErrorRate != 0.5 {
		t.Fatalf("unexpected scenario totals: %+v", result)
	}
	if result.RPS != 1 {
		t.Fatalf("unexpected rps: %v", result.RPS)
	}
	add := result.Steps["add_item"]
	if add.Calls != 2 || add.Statuses["200"] != 1 || add.Statuses["502"] != 1 {
		t.Fatalf("unexpected add_item report: %+v", add)
	}
	if add.LatencyMs.Min != 10 || add.LatencyMs.Max != 30 || add.LatencyMs.P50 != 20 {
		t.Fatalf("unexpected add_item latency: %+v", add.LatencyMs)
	}
	if result.Steps["checkout"].Statuses["error"] != 1 {
		t.Fatalf("network errors must be labelled, got %+v", result.Steps["checkout"])
	}

	var out bytes.Buffer
	printReport(&out, result, config{mode: modeCheckout, total: 2})
	for _, want := range []string{"Load test summary", "run=count:2", "add_item: calls=2", "checkout: calls=1"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("report does not contain %q:\n%s", want, out.String())
		}
	}
}

func TestPercentileAndRatio(t *testing.T) {
	if got := percentile(nil, 95); got != 0 {
		t.Fatalf("empty percentile: %v", got)
	}
	if got := percentile([]float64{7}, 99); got != 7 {
		t.Fatalf("single percentile: %v", got)
	}
	if got := percentile([]float64{1, 2, 3, 4, 5}, 50); got != 3 {
		t.Fatalf("median: %v", got)
	}
	if got := percentile([]float64{0, 10}, 95); got != 9.5 {
		t.Fatalf("interpolated percentile: %v", got)
	}
	if ratio(1, 0) != 0 || ratio(1, 4) != 0.25 {
		t.Fatal("unexpected ratio")
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	if err := writeJSONReport("report.json", report{TotalScenarios: 3}); err != nil {
		t.Fatalf("write report: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.TotalScenarios != 3 {
		t.Fatalf("unexpected report: %s (%v)", data, err)
	}

	if err := writeJSONReport("../escape.json", report{}); err == nil {
		t.Fatal("expected error for path outside working directory")
	}
	if err := writeJSONReport(".", report{}); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestRunScenario_AgainstCartAPI(t *testing.T) {
	orders := orderstub.NewService()
	registry := session.NewRegistry(func(id string, ledger *cart.Ledger) *checkout.Workflow {
		return checkout.NewWorkflow(id, ledger, identity.ContextProvider{}, orders)
	})
	srv := httptest.NewServer(httpapi.NewRouter(httpapi.NewHandler(registry, catalog.Demo())))
	defer srv.Close()

	cfg, err := parseConfig([]string{"-base-url", srv.URL})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	col := newCollector()
	if err := runScenario(context.Background(), srv.Client(), cfg, 1, "test", col); err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if orders.Calls() != 1 {
		t.Fatalf("expected one order, got %d", orders.Calls())
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.Steps["add_item"].Calls != int64(len(cfg.items)) || result.Steps["checkout"].Success != 1 {
		t.Fatalf("unexpected steps: %+v", result.Steps)
	}
}

func TestRunScenario_UnknownItemFails(t *testing.T) {
	registry := session.NewRegistry(func(id string, ledger *cart.Ledger) *checkout.Workflow {
		return checkout.NewWorkflow(id, ledger, identity.ContextProvider{}, orderstub.NewService())
	})
	srv := httptest.NewServer(httpapi.NewRouter(httpapi.NewHandler(registry, catalog.Demo())))
	defer srv.Close()

	cfg, err := parseConfig([]string{"-base-url", srv.URL, "-items", "9:999", "-mode", "cart"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	col := newCollector()
	if err := runScenario(context.Background(), srv.Client(), cfg, 1, "test", col); err == nil {
		t.Fatal("expected scenario failure for unknown item")
	}
	if got := col.buildReport(time.Now(), time.Second).Steps["add_item"].Statuses["404"]; got != 1 {
		t.Fatalf("expected one 404, got %d", got)
	}
}
