package config

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// PackageConfig contains the [package] settings.
//
// Zero values mean the setting is absent and the caller's default applies.
type PackageConfig struct {
	LocalVerDir     string
	MemoryThreshold int64
	RecordsPerBlock int
	VerifyChecksum  bool
	SkipExtended    bool
}

// ForPackage returns configuration for packaging.
func (l *Loader) ForPackage() (c PackageConfig, err error) {
	sec, err := l.cfg.GetSection("package")
	if err != nil {
		return c, nil
	}

	c.LocalVerDir = sec.Key("local-ver-dir").Value()

	if v := sec.Key("memory-threshold").Value(); v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			return c, fmt.Errorf(`parse memory-threshold "%s" error: %w`, v, err)
		}
		c.MemoryThreshold = int64(n)
	}

	if sec.HasKey("records-per-block") {
		if c.RecordsPerBlock, err = sec.Key("records-per-block").Int(); err != nil {
			return c, fmt.Errorf("parse records-per-block error: %w", err)
		}
		if c.RecordsPerBlock <= 0 {
			return c, fmt.Errorf("records-per-block must be positive, got %d", c.RecordsPerBlock)
		}
	}

	if sec.HasKey("verify-checksum") {
		if c.VerifyChecksum, err = sec.Key("verify-checksum").Bool(); err != nil {
			return c, fmt.Errorf("parse verify-checksum error: %w", err)
		}
	}

	if sec.HasKey("skip-extended") {
		if c.SkipExtended, err = sec.Key("skip-extended").Bool(); err != nil {
			return c, fmt.Errorf("parse skip-extended error: %w", err)
		}
	}

	return c, nil
}

// ForPackage calls Loader.ForPackage on the DefaultLoader instance.
func ForPackage() (PackageConfig, error) {
	return DefaultLoader.ForPackage()
}

// S3Config contains the [s3] settings.
type S3Config struct {
	// Profile is the AWS shared config profile.
	Profile string
	// Upload is the s3://bucket/prefix destination of produced zip files.
	Upload string
}

// ForS3 returns configuration for S3 access.
//
// Loader.Profile if non-empty overrides the profile from the file.
func (l *Loader) ForS3() (c S3Config) {
	if sec, err := l.cfg.GetSection("s3"); err == nil {
		c.Profile = sec.Key("profile").Value()
		c.Upload = sec.Key("upload").Value()
	}

	if l.Profile != "" {
		c.Profile = l.Profile
	}

	return
}

// ForS3 calls Loader.ForS3 on the DefaultLoader instance.
func ForS3() S3Config {
	return DefaultLoader.ForS3()
}
