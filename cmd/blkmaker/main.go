// Package main provides blkmaker, a command-line tool that turns getblocktemplate results into
// mining work and assembles solved blocks for submission.
//
// Usage:
//
//	blkmaker template > template.json
//	blkmaker getdata --template template.json --address <address> --count 4
//	blkmaker getmdata --template template.json --address <address>
//	blkmaker submit --template template.json --address <address> --data <hex> --dataid 1 --nonce 42
//	blkmaker mine --template template.json --address <address> --send
//
// Templates are read from a file, or fetched from the node at --rpc-url when --template is not
// given. Work and submissions are written to stdout as JSON lines; logs go to stderr.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/settings"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

const prometheusEndpoint = "/metrics"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err, followed by the JSON encoded error data when it carries any, such as
// the headroom left by a rejected coinbase append.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, err)

	for e, ok := err.(*errors.Error); ok; e, ok = e.WrappedErr().(*errors.Error) {
		if e.Data() != nil {
			fmt.Fprintf(w, "data: %s\n", e.Data().EncodeErrorData())
			return
		}
	}
}

func newApp() *cli.App {
	tSettings := settings.NewSettings()

	templateFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "template",
			Usage: "getblocktemplate result to work on, fetched from --rpc-url when empty",
		},
		&cli.StringFlag{
			Name:  "payout-script",
			Usage: "hex encoded coinbase output script",
			Value: tSettings.BlockMaker.PayoutScript,
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "pay the coinbase to this P2PKH address instead of --payout-script",
		},
		&cli.StringFlag{
			Name:  "coinbase-text",
			Usage: "text appended to the coinbase scriptSig, e.g. /blkmaker/",
		},
		&cli.Int64Flag{
			Name:  "received-at",
			Usage: "unix time the template was received, defaults to now",
		},
		&cli.BoolFlag{
			Name:  "dump",
			Usage: "dump the prepared template to stderr",
		},
	}

	return &cli.App{
		Name:  "blkmaker",
		Usage: "build mining work from block templates and assemble solved blocks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: tSettings.LogLevel,
			},
			&cli.StringFlag{
				Name:  "rpc-url",
				Usage: "node JSON-RPC endpoint, including credentials",
				Value: tSettings.BlockMaker.RPCURL,
			},
			&cli.StringFlag{
				Name:  "metrics-listen",
				Usage: "serve prometheus metrics on this address",
				Value: tSettings.BlockMaker.MetricsListenAddress,
			},
		},
		Before: func(c *cli.Context) error {
			startMetrics(c.String("metrics-listen"), newLogger(c, tSettings))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "template",
				Usage:  "fetch a block template from the node and print it",
				Action: templateAction(tSettings),
			},
			{
				Name:  "getdata",
				Usage: "issue header preambles for miners that only roll the nonce",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "count",
						Usage: "number of work units",
						Value: 1,
					},
				}, templateFlags...),
				Action: getDataAction(tSettings),
			},
			{
				Name:  "getmdata",
				Usage: "issue merkle-only work for miners that build their own coinbase",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "extranonce-size",
						Value: tSettings.BlockMaker.ExtranonceSize,
					},
					&cli.BoolFlag{
						Name:  "roll-ntime",
						Usage: "the miner rolls the header time itself",
						Value: tSettings.BlockMaker.RollNTime,
					},
				}, templateFlags...),
				Action: getMDataAction(tSettings),
			},
			{
				Name:  "submit",
				Usage: "assemble a solved block",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Usage:    "hex encoded header the nonce was found for",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "dataid",
						Usage: "data id of the work unit, from getdata",
					},
					&cli.StringFlag{
						Name:  "extranonce",
						Usage: "hex encoded extranonce, for getmdata work",
					},
					&cli.Uint64Flag{
						Name:     "nonce",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "foreign",
						Usage: "always submit the full block",
						Value: tSettings.BlockMaker.ForeignSubmit,
					},
					&cli.BoolFlag{
						Name:  "send",
						Usage: "submit the block to the node",
					},
				}, templateFlags...),
				Action: submitAction(tSettings),
			},
			{
				Name:  "mine",
				Usage: "mine a block on the CPU, for regtest",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "max-work",
						Usage: "give up after this many work units",
						Value: 16,
					},
					&cli.Uint64Flag{
						Name:  "max-nonce",
						Usage: "highest nonce tried per work unit",
						Value: 0xffffffff,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "work units hashed in parallel, one per CPU when 0",
					},
					&cli.BoolFlag{
						Name:  "send",
						Usage: "submit the block to the node",
					},
				}, templateFlags...),
				Action: mineAction(tSettings),
			},
		},
	}
}

func newLogger(c *cli.Context, tSettings *settings.Settings) ulogger.Logger {
	return ulogger.New(tSettings.ClientName,
		ulogger.WithLevel(c.String("log-level")),
		ulogger.WithWriter(c.App.ErrWriter),
		ulogger.WithPrettyLogs(tSettings.PrettyLogs),
	)
}

func startMetrics(address string, logger ulogger.Logger) {
	if address == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(prometheusEndpoint, promhttp.Handler())

	server := &http.Server{
		Addr:         address,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("Starting prometheus endpoint on %s%s", address, prometheusEndpoint)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("prometheus endpoint stopped: %v", err)
		}
	}()
}
