package main

import (
	"errors"
	"fmt"

	"docsearch-gateway/middleware/ratelimit/domain"
	"docsearch-gateway/middleware/ratelimit/infra"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show guard decisions aggregated in Redis",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Stats.Enabled {
		return errors.New("stats are disabled (set stats.enabled and stats.redis_addr)")
	}

	stats, closeFn, err := dialRedisStats(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	totals, err := stats.Totals(cmd.Context())
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTally(totals))
	return nil
}

func renderTally(t infra.Tally) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleRounded)
	w.AppendHeader(table.Row{"Outcome", "Requests"})
	for _, o := range domain.Outcomes {
		w.AppendRow(table.Row{string(o), t[o]})
	}
	w.AppendFooter(table.Row{"total", t.Sum()})
	return w.Render()
}
