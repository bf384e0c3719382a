// Command reconcile audits vendor settlements against the transaction ledger.
//
// Each active settlement is recomputed from its referenced transactions at
// their current adjustment state. Drift beyond tolerance and missing
// transactions are reported; transactions claimed by two settlements place a
// settlement hold on the vendor, exactly as the HTTP audit endpoint does.
//
// With -payouts the command instead reads a bank payout statement (CSV with
// settlement_id, payout_reference, amount and paid_at columns) and matches
// every line against the settlement it pays. Unparseable rows count as
// discrepancies.
//
// Exit status is 0 for a clean ledger, 2 when discrepancies were found and 1
// on error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/evmarket/backend/internal/infrastructure/event"
	csvimport "github.com/evmarket/backend/internal/infrastructure/import"
	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/evmarket/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	exitOK            = 0
	exitError         = 1
	exitDiscrepancies = 2
)

type options struct {
	vendorIDs []uuid.UUID
	all       bool
	payouts   string
	format    string
}

func main() {
	var (
		vendors  string
		all      bool
		format   string
		payouts  string
		logLevel string
	)
	flag.StringVar(&vendors, "vendor", "", "Comma-separated vendor IDs to audit")
	flag.BoolVar(&all, "all", false, "Audit every vendor")
	flag.StringVar(&payouts, "payouts", "", "Bank payout statement (CSV) to match against settlements")
	flag.StringVar(&format, "format", "text", "Output format: text or json")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	opts, err := parseOptions(vendors, all, payouts, format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(exitError)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(exitError)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel), cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	svcCfg := settlementapp.ConfigFromSettings(cfg.Settlement)
	var code int
	if opts.payouts != "" {
		code, err = runPayouts(ctx, db.DB, svcCfg, opts, os.Stdout, log)
	} else {
		code, err = run(ctx, db.DB, svcCfg, opts, os.Stdout, log)
	}
	stop()
	if err != nil {
		log.Error("Audit failed", zap.Error(err))
	}
	if cerr := db.Close(); cerr != nil {
		log.Error("Error closing database", zap.Error(cerr))
	}
	_ = log.Sync()
	os.Exit(code)
}

func parseOptions(vendors string, all bool, payouts, format string) (options, error) {
	opts := options{all: all, payouts: strings.TrimSpace(payouts), format: format}
	if format != "text" && format != "json" {
		return opts, fmt.Errorf("unknown format %q", format)
	}
	for _, raw := range strings.Split(vendors, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid vendor id %q", raw)
		}
		opts.vendorIDs = append(opts.vendorIDs, id)
	}
	modes := 0
	for _, set := range []bool{all, len(opts.vendorIDs) > 0, opts.payouts != ""} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return opts, fmt.Errorf("pass exactly one of -vendor, -all or -payouts")
	}
	return opts, nil
}

func newReconciliationService(db *gorm.DB, cfg settlementapp.Config) *settlementapp.ReconciliationService {
	recorder := event.NewOutboxRecorder(db, event.NewSettlementEventSerializer())
	repos := persistence.NewRepositories(db, recorder)
	return settlementapp.NewReconciliationService(persistence.NewGormUnitOfWork(db, recorder),
		repos.Transactions, repos.Settlements, cfg, nil)
}

// run audits the selected vendors and writes one report per vendor to out.
// Consistency events raised by the audit go to the outbox and are relayed by
// the server.
func run(ctx context.Context, db *gorm.DB, cfg settlementapp.Config, opts options, out io.Writer, log *zap.Logger) (int, error) {
	ctx = logger.WithContext(ctx, log)
	svc := newReconciliationService(db, cfg)

	vendorIDs := opts.vendorIDs
	if opts.all {
		ids, err := persistence.NewGormVendorRepository(db).ListIDs(ctx)
		if err != nil {
			return exitError, err
		}
		vendorIDs = ids
	}

	reports := make([]*settlement.AuditReport, 0, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		report, err := svc.AuditVendor(ctx, vendorID)
		if err != nil {
			return exitError, fmt.Errorf("audit vendor %s: %w", vendorID, err)
		}
		log.Info("Vendor audited",
			zap.String("vendor_id", vendorID.String()),
			zap.Int("settlements_checked", report.SettlementsChecked),
			zap.Int("discrepancies", len(report.Discrepancies)),
		)
		reports = append(reports, report)
	}

	if err := writeReports(out, opts.format, reports); err != nil {
		return exitError, err
	}
	for _, r := range reports {
		if len(r.Discrepancies) > 0 {
			return exitDiscrepancies, nil
		}
	}
	return exitOK, nil
}

func writeReports(out io.Writer, format string, reports []*settlement.AuditReport) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VENDOR\tSETTLEMENT\tTYPE\tTRANSACTION\tRECORDED\tLEDGER\tDIFFERENCE")
	for _, r := range reports {
		if len(r.Discrepancies) == 0 {
			fmt.Fprintf(w, "%s\t-\tok (%d checked)\t-\t-\t-\t-\n", r.VendorID, r.SettlementsChecked)
			continue
		}
		for _, d := range r.Discrepancies {
			tx := "-"
			if d.TransactionID != nil {
				tx = d.TransactionID.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.VendorID, d.SettlementID, d.Type, tx,
				d.RecordedAmount.StringFixed(2), d.LedgerAmount.StringFixed(2), d.Difference.StringFixed(2))
		}
	}
	return w.Flush()
}

// payoutResult is the JSON shape of a statement match
type payoutResult struct {
	*settlement.PayoutReport
	RowErrors      []csvimport.RowError `json:"row_errors"`
	RowErrorsTotal int                  `json:"row_errors_total"`
}

// runPayouts matches the statement at opts.payouts against settlements
func runPayouts(ctx context.Context, db *gorm.DB, cfg settlementapp.Config, opts options, out io.Writer, log *zap.Logger) (int, error) {
	ctx = logger.WithContext(ctx, log)

	f, err := os.Open(opts.payouts)
	if err != nil {
		return exitError, err
	}
	defer f.Close()

	lines, rowErrs, err := csvimport.ParsePayoutStatement(f, csvimport.StatementOptions{
		MaxErrors: 500,
		Location:  cfg.DefaultLocation,
	})
	if err != nil {
		return exitError, fmt.Errorf("read statement %s: %w", opts.payouts, err)
	}

	report, err := newReconciliationService(db, cfg).MatchPayouts(ctx, lines)
	if err != nil {
		return exitError, err
	}
	log.Info("Payout statement matched",
		zap.String("file", opts.payouts),
		zap.Int("lines", report.LinesChecked),
		zap.Int("matched", report.Matched),
		zap.Int("findings", len(report.Findings)),
		zap.Int("row_errors", rowErrs.TotalCount()),
	)

	result := payoutResult{PayoutReport: report, RowErrors: rowErrs.Errors(), RowErrorsTotal: rowErrs.TotalCount()}
	if err := writePayoutResult(out, opts.format, result); err != nil {
		return exitError, err
	}
	if len(report.Findings) > 0 || rowErrs.HasErrors() {
		return exitDiscrepancies, nil
	}
	return exitOK, nil
}

func writePayoutResult(out io.Writer, format string, result payoutResult) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "%d lines, %d matched, %s paid\n", result.LinesChecked, result.Matched, result.PaidTotal.StringFixed(2))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tSETTLEMENT\tTYPE\tSTATUS\tPAID\tRECORDED\tREFERENCE")
	for _, f := range result.Findings {
		recorded, status := "-", "-"
		if f.SettlementAmount != nil {
			recorded = f.SettlementAmount.StringFixed(2)
		}
		if f.Status != "" {
			status = string(f.Status)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", f.Line, f.SettlementID, f.Type, status,
			f.StatementAmount.StringFixed(2), recorded, f.StatementRef)
	}
	for _, e := range result.RowErrors {
		fmt.Fprintf(w, "%d\t-\t%s\t-\t-\t-\t%s\n", e.Row, e.Code, e.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if result.RowErrorsTotal > len(result.RowErrors) {
		fmt.Fprintf(out, "%d more row errors not shown\n", result.RowErrorsTotal-len(result.RowErrors))
	}
	return nil
}
