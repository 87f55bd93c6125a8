// Rajada dispara requests contra /api/search.json e resume os status, para
// conferir à mão o rate limit e a validação de origem de um servidor rodando.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type tally struct {
	mu       sync.Mutex
	byStatus map[int]int
	lastSeen map[int]http.Header
}

// searchBody monta {"query": ...} com escape JSON de verdade.
func searchBody(query string) ([]byte, error) {
	return json.Marshal(map[string]string{"query": query})
}

func main() {
	var (
		target  string
		origin  string
		ip      string
		ipHdr   string
		total   int
		workers int
		query   string
	)

	cmd := &cobra.Command{
		Use:   "rajada",
		Short: "Fire a burst of search requests and summarize status codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := &tally{byStatus: map[int]int{}, lastSeen: map[int]http.Header{}}
			client := &http.Client{Timeout: 10 * time.Second}
			body, err := searchBody(query)
			if err != nil {
				return err
			}

			jobs := make(chan struct{})
			var wg sync.WaitGroup
			for range max(1, workers) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range jobs {
						req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
						if err != nil {
							t.add(0, nil)
							continue
						}
						req.Header.Set("Content-Type", "application/json")
						if origin != "" {
							req.Header.Set("Origin", origin)
						}
						if ip != "" {
							req.Header.Set(ipHdr, ip)
						}
						resp, err := client.Do(req)
						if err != nil {
							t.add(0, nil)
							continue
						}
						_, _ = io.Copy(io.Discard, resp.Body)
						resp.Body.Close()
						t.add(resp.StatusCode, resp.Header)
					}
				}()
			}
			for range total {
				jobs <- struct{}{}
			}
			close(jobs)
			wg.Wait()

			fmt.Fprintln(cmd.OutOrStdout(), t.render())
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "url", "http://localhost:8080/api/search.json", "search endpoint")
	cmd.Flags().StringVar(&origin, "origin", "http://localhost:8080", "Origin header (empty to omit)")
	cmd.Flags().StringVar(&ip, "ip", "203.0.113.10", "client IP sent in --ip-header (empty to omit)")
	cmd.Flags().StringVar(&ipHdr, "ip-header", "X-Real-IP", "header carrying the client IP")
	cmd.Flags().IntVarP(&total, "requests", "n", 30, "total requests")
	cmd.Flags().IntVarP(&workers, "workers", "c", 4, "concurrent workers")
	cmd.Flags().StringVarP(&query, "query", "q", "rate limits", "search query")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (t *tally) add(status int, h http.Header) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byStatus[status]++
	if h != nil {
		t.lastSeen[status] = h
	}
}

func (t *tally) render() string {
	statuses := make([]int, 0, len(t.byStatus))
	for s := range t.byStatus {
		statuses = append(statuses, s)
	}
	sort.Ints(statuses)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Status", "Count", "Limit", "Remaining", "Reset", "Retry-After"})
	for _, s := range statuses {
		label := fmt.Sprint(s)
		if s == 0 {
			label = "error"
		}
		h := t.lastSeen[s]
		tw.AppendRow(table.Row{
			label,
			t.byStatus[s],
			h.Get("X-RateLimit-Limit"),
			h.Get("X-RateLimit-Remaining"),
			h.Get("X-RateLimit-Reset"),
			h.Get("Retry-After"),
		})
	}
	return tw.Render()
}
