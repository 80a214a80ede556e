package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/pvzip/internal"
	"github.com/nguyengg/pvzip/internal/config"
	"github.com/nguyengg/pvzip/packager"
)

type Package struct {
	Target          string         `short:"t" long:"target" description:"name of the packaged product; inferred from archive names in format Target-Version-....ext if not given"`
	Version         string         `short:"v" long:"version" description:"version of the packaged product; inferred from archive names in format Target-Version-....ext if not given"`
	LocalVerDir     flags.Filename `short:"d" long:"local-ver-dir" description:"root directory of the versioned zip files; overrides local-ver-dir from .pvzip"`
	Upload          string         `short:"u" long:"upload" description:"if given, upload the versioned zip file to this s3://bucket/prefix; overrides upload from .pvzip"`
	MemoryThreshold string         `long:"memory-threshold" description:"tar entries larger than this are spooled to disk, e.g. 1MiB"`
	RecordsPerBlock int            `long:"records-per-block" description:"tar blocking factor"`
	VerifyChecksum  bool           `long:"verify-checksum" description:"reject tar headers whose checksum does not match"`
	SkipExtended    bool           `long:"skip-extended" description:"leave pax and other extended tar headers out of the zip file"`
	Quiet           bool           `short:"q" long:"quiet" description:"do not display the progress bar"`
	Args            struct {
		Source string `positional-arg-name:"source" description:"the local directory, zip, or tar file (optionally compressed), or its S3 URI" required:"yes"`
	} `positional-args:"yes"`

	logger *log.Logger
}

func (c *Package) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	c.logger = internal.Logger(internal.WithPrefixLogger(ctx, internal.Prefix(0, 1, c.Args.Source)))

	if path, err := config.Load(ctx); err != nil {
		return fmt.Errorf(`load config "%s" error: %w`, path, err)
	} else if path != "" {
		c.logger.Printf(`using config "%s"`, path)
	}

	optFn, err := c.options()
	if err != nil {
		return err
	}

	dest := c.Upload
	if dest == "" {
		dest = config.ForS3().Upload
	}

	return c.run(ctx, dest, optFn)
}

func (c *Package) run(ctx context.Context, dest string, optFn func(*packager.Options)) (err error) {
	var (
		s3client *s3.Client
		getter   internal.GetObjectAPIClient
	)
	if strings.HasPrefix(c.Args.Source, "s3://") || dest != "" {
		if s3client, err = config.NewS3Client(ctx); err != nil {
			return fmt.Errorf("create s3 client error: %w", err)
		}
		getter = s3client
	}

	src, err := packager.Open(ctx, c.Args.Source, getter, optFn)
	if err != nil {
		return err
	}
	defer src.Close()

	res, err := packager.Package(ctx, src, optFn)
	if err != nil {
		return err
	}

	if res.Backup != "" {
		c.logger.Printf(`previous version kept as "%s"`, res.Backup)
	}

	if dest == "" {
		return nil
	}

	_, err = packager.Upload(ctx, s3client, res, dest, c.logger)
	return err
}

// options merges the [package] section of .pvzip with the command line flags, which take precedence.
func (c *Package) options() (func(*packager.Options), error) {
	pc, err := config.ForPackage()
	if err != nil {
		return nil, err
	}

	if c.LocalVerDir != "" {
		pc.LocalVerDir = string(c.LocalVerDir)
	}
	if c.MemoryThreshold != "" {
		n, err := humanize.ParseBytes(c.MemoryThreshold)
		if err != nil {
			return nil, fmt.Errorf(`parse memory-threshold "%s" error: %w`, c.MemoryThreshold, err)
		}
		pc.MemoryThreshold = int64(n)
	}
	if c.RecordsPerBlock != 0 {
		if c.RecordsPerBlock < 0 {
			return nil, fmt.Errorf("records-per-block must be positive")
		}
		pc.RecordsPerBlock = c.RecordsPerBlock
	}
	pc.VerifyChecksum = pc.VerifyChecksum || c.VerifyChecksum

	return func(opts *packager.Options) {
		opts.Target = c.Target
		opts.Version = c.Version
		opts.LocalVerDir = pc.LocalVerDir
		opts.MemoryThreshold = pc.MemoryThreshold
		opts.RecordsPerBlock = pc.RecordsPerBlock
		opts.VerifyChecksum = pc.VerifyChecksum
		opts.SkipExtended = pc.SkipExtended || c.SkipExtended
		opts.Logger = c.logger
		opts.Quiet = c.Quiet
	}, nil
}
