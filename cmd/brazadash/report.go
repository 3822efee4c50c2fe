package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"brazadash/internal/domain"
	"brazadash/internal/usecase"
)

func reportCmd() *cobra.Command {
	var (
		start, end string
		weekOffset int
		format     string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the financial report for a week or an explicit date range",
		Long: `Print the platform financial report.

Examples:
  brazadash report
  brazadash report --week-offset 1 --format yaml
  brazadash report --start 2024-03-01 --end 2024-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			loc, err := time.LoadLocation(cfg.ReportTimezone)
			if err != nil {
				return err
			}
			svc := &usecase.ReportService{Orders: st, Bookings: st, Catalog: st, Location: loc, Log: log.Named("reports")}
			q := usecase.ReportQuery{StartDate: start, EndDate: end}
			if cmd.Flags().Changed("week-offset") {
				q.WeekOffset = strconv.Itoa(weekOffset)
			}
			rep, err := svc.FinancialReport(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), rep, format)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().IntVar(&weekOffset, "week-offset", 0, "weeks before the current one")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	return cmd
}

func writeReport(w io.Writer, rep *domain.FinancialReport, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rep)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
