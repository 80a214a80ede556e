package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/pvzip/codec"
	"github.com/nguyengg/pvzip/internal"
	"github.com/nguyengg/pvzip/internal/config"
	"github.com/nguyengg/pvzip/ustar"
)

type List struct {
	RecordsPerBlock int  `long:"records-per-block" description:"tar blocking factor"`
	VerifyChecksum  bool `long:"verify-checksum" description:"reject tar headers whose checksum does not match"`
	Args            struct {
		Files []string `positional-arg-name:"file" description:"the local tar files (optionally compressed) or their S3 URIs" required:"yes"`
	} `positional-args:"yes"`

	out io.Writer
}

func (c *List) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	if c.RecordsPerBlock < 0 {
		return fmt.Errorf("records-per-block must be positive")
	}

	if c.out == nil {
		c.out = os.Stdout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	if path, err := config.Load(ctx); err != nil {
		return fmt.Errorf(`load config "%s" error: %w`, path, err)
	}

	success := 0
	n := len(c.Args.Files)
	for i, file := range c.Args.Files {
		ctx := internal.WithPrefixLogger(ctx, internal.Prefix(i, n, file))

		if err := c.list(ctx, file); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}

			internal.Logger(ctx).Printf("list error: %v", err)
			continue
		}

		success++
	}

	if success != n {
		return fmt.Errorf("listed %d/%d files successfully", success, n)
	}

	return nil
}

func (c *List) list(ctx context.Context, name string) error {
	r, err := c.open(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()

	dec, _, err := codec.NewDecoder(ctx, name, r)
	if err != nil {
		return err
	}
	defer dec.Close()

	logger := internal.Logger(ctx)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	count, size := 0, int64(0)

	for e, err := range ustar.Headers(dec, func(opts *ustar.IteratorOptions) {
		if c.RecordsPerBlock > 0 {
			opts.RecordsPerBlock = c.RecordsPerBlock
		}
		opts.VerifyChecksum = c.VerifyChecksum
		opts.Logger = logger
	}) {
		if err != nil {
			_ = tw.Flush()
			return err
		}

		h := e.Header()
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", h.Dialect(), h.TypeFlag(), h.Action(), h.Size(), h.Name())
		count++
		size += h.Size()

		select {
		case <-ctx.Done():
			_ = tw.Flush()
			return ctx.Err()
		default:
		}
	}

	if err = tw.Flush(); err != nil {
		return err
	}

	logger.Printf("%d headers (%s of content)", count, humanize.IBytes(uint64(size)))
	return nil
}

func (c *List) open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !strings.HasPrefix(name, "s3://") {
		return os.Open(name)
	}

	bucket, key, err := internal.ParseS3URI(name)
	if err != nil {
		return nil, err
	}

	client, err := config.NewS3Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("create s3 client error: %w", err)
	}

	r, _, err := internal.OpenObject(ctx, client, bucket, key)
	return r, err
}
