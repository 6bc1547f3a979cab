// Command photocache exercises the cache against a real photo source and
// optionally exposes Prometheus metrics while doing so.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/printkit/photocache/cache"
	"github.com/printkit/photocache/internal/logutil"
	"github.com/printkit/photocache/metrics/prom"
	"github.com/printkit/photocache/source"
	s3source "github.com/printkit/photocache/source/s3"
)

func main() {
	logutil.Init()

	cmd := &cli.Command{
		Name:     "photocache",
		Usage:    "warm and inspect a photo asset cache",
		Commands: []*cli.Command{fetchCommand()},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "download the given photo keys through the cache and print stats",
		ArgsUsage: "key [key ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base",
				Usage: "HTTP base URL of the photo source",
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "S3 bucket holding the photos (alternative to --base)",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "key prefix inside the S3 bucket",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region override",
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "AWS shared config profile",
			},
			&cli.IntFlag{
				Name:  "max-entries",
				Usage: "cache entry cap",
				Value: cache.DefaultMaxEntries,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "entry time-to-live",
				Value: cache.DefaultTTL,
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "serve Prometheus metrics at addr (e.g. :8080); empty = disabled",
			},
		},
		Action: runFetch,
	}
}

func runFetch(ctx context.Context, cmd *cli.Command) error {
	keys := cmd.Args().Slice()
	if len(keys) == 0 {
		return errors.New("no photo keys given")
	}

	download, err := pickSource(ctx, cmd)
	if err != nil {
		return err
	}

	c := cache.New(cache.Options{
		MaxEntries: int(cmd.Int("max-entries")),
		TTL:        cmd.Duration("ttl"),
		Download:   download,
		Metrics:    prom.New(nil, "photocache", "cli", nil),
		Logger:     log.Log,
	})
	defer c.Close()

	if addr := cmd.String("metrics"); addr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.WithField("addr", addr).Info("serving metrics")
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	photos := make([]cache.Photo, 0, len(keys))
	for _, k := range keys {
		photos = append(photos, cache.Photo{FileID: k})
	}

	if err := c.PreloadAll(ctx, photos); err != nil {
		return err
	}
	for _, p := range photos {
		ref, err := c.GetHandle(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", p.FileID, ref.URI)
	}

	fmt.Println(c.Stats())
	return nil
}

// pickSource builds the downloader from flags: --base selects HTTP,
// --bucket selects S3. Exactly one must be given.
func pickSource(ctx context.Context, cmd *cli.Command) (func(context.Context, string) ([]byte, error), error) {
	base := cmd.String("base")
	bucket := cmd.String("bucket")

	switch {
	case base != "" && bucket != "":
		return nil, errors.New("--base and --bucket are mutually exclusive")
	case base != "":
		src := &source.HTTP{Base: base}
		return src.Download, nil
	case bucket != "":
		var opts []s3source.Option
		if p := cmd.String("profile"); p != "" {
			opts = append(opts, s3source.WithProfile(p))
		}
		if r := cmd.String("region"); r != "" {
			opts = append(opts, s3source.WithRegion(r))
		}
		src, err := s3source.Connect(ctx, bucket, cmd.String("prefix"), opts...)
		if err != nil {
			return nil, err
		}
		return src.Download, nil
	default:
		return nil, errors.New("one of --base or --bucket is required")
	}
}
