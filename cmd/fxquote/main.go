package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"text/tabwriter"

	"github.com/defistate/fxpool-client-go/cmd/fxquote/config"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator"
	"github.com/defistate/fxpool-client-go/quoter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()

	rootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	exit := func() {
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load configuration", "path", *configPath, "error", err)
		exit()
	}

	leveled, err := newLogger(os.Stderr, cfg)
	if err != nil {
		rootLogger.Error("Invalid log level", "level", cfg.LogLevel, "error", err)
		exit()
	}
	rootLogger = leveled

	pools, err := cfg.ToPools()
	if err != nil {
		rootLogger.Error("Failed to build pool snapshot", "error", err)
		exit()
	}

	q, err := quoter.New(
		&quoter.Config{
			Logger:   rootLogger.With("component", "quoter"),
			Registry: prometheus.DefaultRegisterer,
		},
		quoter.WithPools(pools),
	)
	if err != nil {
		rootLogger.Error("Failed to initialize quoter", "error", err)
		exit()
	}

	requests, err := cfg.Requests()
	if err != nil {
		rootLogger.Error("Failed to resolve quote requests", "error", err)
		exit()
	}

	if err := run(os.Stdout, q, requests); err != nil {
		rootLogger.Error("Quoting failed", "error", err)
		exit()
	}
}

// newLogger builds the JSON root logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// run prints one row per quoted amount followed by the request's max tradable amount.
func run(out io.Writer, q *quoter.Quoter, requests []config.Request) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tSIDE\tIN\tOUT\tAMOUNT\tQUOTE")

	for _, req := range requests {
		var (
			quotes []*big.Int
			err    error
		)
		// given amounts are tokenIn for sells and tokenOut for buys; quotes are the other side
		givenToken, quotedToken := req.TokenIn, req.TokenOut
		switch req.Side {
		case calculator.SwapSideSell:
			quotes, err = q.QuoteGivenIn(req.Pool, address(req.TokenIn), address(req.TokenOut), req.Amounts)
		case calculator.SwapSideBuy:
			givenToken, quotedToken = req.TokenOut, req.TokenIn
			quotes, err = q.QuoteGivenOut(req.Pool, address(req.TokenIn), address(req.TokenOut), req.Amounts)
		}
		if err != nil {
			return fmt.Errorf("pool %s %s -> %s: %w", req.Pool.Hex(), label(req.TokenIn), label(req.TokenOut), err)
		}

		for i, amount := range req.Amounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\t%s %s\n",
				req.Pool.Hex(), req.Side, label(req.TokenIn), label(req.TokenOut),
				config.FromRaw(amount, givenToken.Decimals), label(givenToken),
				config.FromRaw(quotes[i], quotedToken.Decimals), label(quotedToken),
			)
		}

		maxAmount, err := q.MaxTradableAmount(req.Pool, address(req.TokenIn), address(req.TokenOut), req.Side)
		if err != nil {
			return fmt.Errorf("pool %s max tradable: %w", req.Pool.Hex(), err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\tmax\t%s %s\n",
			req.Pool.Hex(), req.Side, label(req.TokenIn), label(req.TokenOut),
			config.FromRaw(maxAmount, givenToken.Decimals), label(givenToken),
		)
	}
	return w.Flush()
}

func address(t config.TokenConfig) common.Address {
	return common.HexToAddress(t.Address)
}

func label(t config.TokenConfig) string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return common.HexToAddress(t.Address).Hex()
}
