// Command bench drives the ledger's HTTP API with concurrent transactions
// and reports throughput.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		addr        = flag.String("addr", "http://localhost:8080", "service base URL")
		totalCount  = flag.Int("n", 100000, "number of transactions to send")
		concurrency = flag.Int("c", 100, "concurrent requests")
		amount      = flag.Float64("amount", 10.0, "amount per transaction")
	)
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	number, err := createAccount(client, *addr)
	if err != nil {
		log.Fatalf("create account: %v", err)
	}
	log.Printf("benchmark account %d", number)

	var wg sync.WaitGroup
	wg.Add(*totalCount)
	sem := make(chan struct{}, *concurrency)
	var applied, failed int64

	startTime := time.Now()

	for i := 0; i < *totalCount; i++ {
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			ok, err := addTransaction(client, *addr, number, *amount)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				if idx%10000 == 0 {
					log.Printf("transaction %d failed: %v", idx, err)
				}
				return
			}
			if ok {
				atomic.AddInt64(&applied, 1)
			}
		}(i)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %v (applied=%d failed=%d)\n", *totalCount, elapsed, applied, failed)
	fmt.Printf("TPS: %.2f\n", float64(*totalCount)/elapsed.Seconds())
}

func createAccount(client *http.Client, addr string) (int64, error) {
	body, _ := json.Marshal(map[string]string{
		"firstName": "Bench",
		"lastName":  "Runner",
	})
	resp, err := client.Post(addr+"/banks/create", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out struct {
		AccountNumber int64 `json:"accountNumber"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.AccountNumber, nil
}

func addTransaction(client *http.Client, addr string, number int64, amount float64) (bool, error) {
	body, _ := json.Marshal(map[string]any{
		"accountNumber": number,
		"amount":        amount,
	})
	resp, err := client.Post(addr+"/banks/transaction", "application/json", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out struct {
		Applied bool `json:"applied"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Applied, nil
}
