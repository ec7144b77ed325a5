package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"payslipgen/internal/app/generator"
	"payslipgen/internal/document"
	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/logging"
	"payslipgen/internal/platform/recordclient"
)

func main() {
	os.Exit(run())
}

func run() int {
	in := flag.String("in", "-", "payslip form JSON file, or - for stdin")
	out := flag.String("out", ".", "directory for the generated PDF")
	serverURL := flag.String("server", envOr("PAYSLIP_SERVER", "http://localhost:8080"), "record service base URL")
	token := flag.String("token", os.Getenv("PAYSLIP_TOKEN"), "bearer token for the record service")
	logo := flag.String("logo", "", "logo as file path, http(s) URL, data URL or base64")
	template := flag.Bool("template", false, "print a starter form for the current pay period and exit")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline for save and render")
	flag.Parse()

	cfg := config.Load()

	if *template {
		draft := payslip.NewDraft(time.Now(), cfg.DefaultCurrency, cfg.DefaultCurrencySymbol)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(draft); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	rec, err := readRecord(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read form:", err)
		return 1
	}
	source, err := logoSource(*logo)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logo:", err)
		return 1
	}

	renderer, err := document.NewRenderer(document.Options{
		Money: document.MoneyFormat{
			Decimals: cfg.DocAmountDecimals,
			Suffix:   cfg.DocAmountSuffix,
			Locale:   cfg.DocNumberLocale,
		},
		FontPath: cfg.DocFontPath,
		Logos:    document.NewLogoLoader(document.HTTPFetcher{MaxBytes: cfg.LogoMaxBytes}, cfg.LogoFetchTimeout, cfg.LogoMaxBytes),
		Logger:   log,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	gen := &generator.Generator{
		Records:  recordclient.New(*serverURL, *token, *timeout),
		Renderer: renderer,
		Log:      log,
		OnFinish: func(res generator.Result) {
			fmt.Println(generator.FinishedMessage)
			fmt.Println(res.Path)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if _, err := gen.Run(ctx, generator.Request{Record: rec, LogoSource: source, OutDir: *out}); err != nil {
		var verr *payslip.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				fmt.Fprintf(os.Stderr, "%s: %s\n", issue.Field, issue.Reason)
			}
			return 2
		}
		log.Debug("generation failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func readRecord(path string) (payslip.Record, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return payslip.Record{}, err
		}
		defer f.Close()
		r = f
	}
	var rec payslip.Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return payslip.Record{}, err
	}
	return rec, nil
}

func logoSource(value string) (document.LogoSource, error) {
	if value == "" {
		return document.LogoSource{}, nil
	}
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		data, err := os.ReadFile(value)
		if err != nil {
			return document.LogoSource{}, err
		}
		return document.LogoSource{Data: data}, nil
	}
	return document.ParseLogoSource(value)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
