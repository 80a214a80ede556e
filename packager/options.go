package packager

import (
	"log"

	"github.com/nguyengg/pvzip/ustar"
)

// Options customises Open and Package.
type Options struct {
	// Target is the name of the packaged product, for example "jre". Inferred from archive names if empty.
	Target string
	// Version is the version of the packaged product, for example "7u60". Inferred from archive names if empty.
	Version string
	// LocalVerDir is the root directory receiving "<Target>/<Version>.zip". Required by Package.
	LocalVerDir string

	// TempDir is where large tar entries and non-file zip sources are spooled. Default to os.TempDir.
	TempDir string
	// MemoryThreshold is the largest tar entry kept in memory. Default to ustar.DefaultMemoryThreshold.
	MemoryThreshold int64
	// RecordsPerBlock is the tar blocking factor. Default to ustar.DefaultRecordsPerBlock.
	RecordsPerBlock int
	// VerifyChecksum rejects tar headers whose checksum field does not match.
	VerifyChecksum bool
	// SkipExtended leaves pax and other extended tar headers out of the zip file instead of copying them as files.
	SkipExtended bool

	// Logger receives progress messages. Default to log.Default.
	Logger *log.Logger
	// Quiet disables the progress bar.
	Quiet bool
}

func newOptions(optFns []func(*Options)) *Options {
	opts := &Options{
		MemoryThreshold: ustar.DefaultMemoryThreshold,
		RecordsPerBlock: ustar.DefaultRecordsPerBlock,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MemoryThreshold <= 0 {
		opts.MemoryThreshold = ustar.DefaultMemoryThreshold
	}
	if opts.RecordsPerBlock <= 0 {
		opts.RecordsPerBlock = ustar.DefaultRecordsPerBlock
	}

	return opts
}

func (o *Options) iteratorOptions(opts *ustar.IteratorOptions) {
	opts.RecordsPerBlock = o.RecordsPerBlock
	opts.MemoryThreshold = o.MemoryThreshold
	opts.TempDir = o.TempDir
	opts.VerifyChecksum = o.VerifyChecksum
	opts.SkipExtended = o.SkipExtended
	opts.Logger = o.Logger
}
