package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18091"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numDatasets  = 20
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

var (
	snippetIDs   []int64
	snippetIDsMu sync.Mutex
)

func main() {
	fmt.Println("=== VSD Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Datasets: %d\n\n", numWorkers, testDuration, numDatasets)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Seed datasets so resolution has targets
	fmt.Println("\n--- Seeding datasets ---")
	for i := 0; i < numDatasets; i++ {
		seedDataset(i)
	}

	// Phase 1: snippet churn
	fmt.Println("\n--- Phase 1: Snippet churn (create + draft edits) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.3 {
			return doCreateSnippet()
		}
		return doDraftEdit(rng)
	})

	// Phase 2: mixed load
	fmt.Println("\n--- Phase 2: Mixed load (writes + resolve + lists) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.20:
			return doDraftEdit(rng)
		case r < 0.30:
			return doPublish(rng)
		case r < 0.60:
			return doResolve(rng)
		case r < 0.80:
			return doListSnippets(rng)
		default:
			return doListDatasets(rng)
		}
	})

	// Phase 3: read-heavy
	fmt.Println("\n--- Phase 3: Read-heavy load (resolve + lists) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.05:
			return doDraftEdit(rng)
		case r < 0.55:
			return doResolve(rng)
		case r < 0.80:
			return doListSnippets(rng)
		default:
			return doListDatasets(rng)
		}
	})
}

func seedDataset(i int) {
	rows := make([]map[string]any, 0, 50)
	for r := 0; r < 50; r++ {
		rows = append(rows, map[string]any{"x": r, "y": r * i})
	}
	body := map[string]any{
		"name":   fmt.Sprintf("load_ds_%d", i),
		"data":   rows,
		"format": "json",
	}
	data, _ := json.Marshal(body)
	resp, err := httpClient.Post(baseURL+"/datasets/create", "application/json", bytes.NewReader(data))
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func randomSnippetID(rng *rand.Rand) int64 {
	snippetIDsMu.Lock()
	defer snippetIDsMu.Unlock()
	if len(snippetIDs) == 0 {
		return 0
	}
	return snippetIDs[rng.Intn(len(snippetIDs))]
}

func doCreateSnippet() result {
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/snippets/create", "application/json", nil)
	lat := time.Since(start)
	if err != nil {
		return result{"POST /snippets/create", 0, lat, true}
	}
	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.ID != 0 {
		snippetIDsMu.Lock()
		snippetIDs = append(snippetIDs, created.ID)
		snippetIDsMu.Unlock()
	}
	return result{"POST /snippets/create", resp.StatusCode, lat, resp.StatusCode != 201}
}

func doDraftEdit(rng *rand.Rand) result {
	id := randomSnippetID(rng)
	if id == 0 {
		return doCreateSnippet()
	}
	spec := fmt.Sprintf(`{"data":{"name":"load_ds_%d"},"mark":"bar","width":%d}`,
		rng.Intn(numDatasets), rng.Intn(800)+100)
	body := map[string]any{"id": id, "spec": spec}
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/snippets/draft", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /snippets/draft", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /snippets/draft", resp.StatusCode, lat, resp.StatusCode != 202}
}

func doPublish(rng *rand.Rand) result {
	id := randomSnippetID(rng)
	if id == 0 {
		return doCreateSnippet()
	}
	data, _ := json.Marshal(map[string]any{"id": id})
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/snippets/publish", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /snippets/publish", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /snippets/publish", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doResolve(rng *rand.Rand) result {
	spec := fmt.Sprintf(`{"data":{"name":"load_ds_%d"},"mark":"line"}`, rng.Intn(numDatasets))
	data, _ := json.Marshal(map[string]any{"spec": spec})
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/resolve", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /resolve", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /resolve", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doListSnippets(rng *rand.Rand) result {
	sorts := []string{"name", "created", "modified"}
	url := fmt.Sprintf("%s/snippets/list?sort=%s", baseURL, sorts[rng.Intn(len(sorts))])
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /snippets/list", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /snippets/list", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doListDatasets(rng *rand.Rand) result {
	sorts := []string{"name", "modified", "size"}
	url := fmt.Sprintf("%s/datasets/list?sort=%s", baseURL, sorts[rng.Intn(len(sorts))])
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /datasets/list", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /datasets/list", resp.StatusCode, lat, resp.StatusCode != 200}
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-24s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 90))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-24s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 90))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
