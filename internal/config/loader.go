package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-ini/ini"
)

// FileName is the name of the configuration file that Load looks for.
const FileName = ".pvzip"

// Loader can be used for loading .pvzip configuration as well as overridden with default settings.
type Loader struct {
	// Profile is the AWS profile to use, taking precedence over the profile from the [s3] section.
	Profile string

	cfg           *ini.File
	s3clientCache sync.Map
}

// Load will traverse the directory hierarchy upwards to find the first ".pvzip" file available and load its contents
// into the Loader.
//
// The name of the .pvzip file is returned, or empty string if none was found.
func (l *Loader) Load(ctx context.Context) (string, error) {
	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return l.LoadFrom(ctx, cur)
}

// LoadFrom is a variant of Load that starts the search at the given directory instead of the working directory.
func (l *Loader) LoadFrom(ctx context.Context, dir string) (string, error) {
	var (
		path   = filepath.Join(dir, FileName)
		cur    = dir
		parent string
		fi     os.FileInfo
		err    error
	)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if fi, err = os.Stat(path); err == nil && !fi.IsDir() {
			break
		}

		if err == nil || os.IsNotExist(err) {
			parent = filepath.Dir(cur)

			if parent == cur || parent == "." || parent == "/" {
				l.cfg = ini.Empty()
				return "", nil
			}

			path = filepath.Join(parent, FileName)
			cur = parent
			continue
		}

		return "", err
	}

	l.cfg, err = ini.Load(path)
	if err != nil {
		l.cfg = ini.Empty()
		return path, err
	}

	return path, nil
}

// LoadProfile is a convenient method to set Loader.Profile then call Load.
func (l *Loader) LoadProfile(ctx context.Context, profile string) (string, error) {
	l.Profile = profile
	return l.Load(ctx)
}

// DefaultLoader is the default Loader instance for package-level methods.
var DefaultLoader = &Loader{cfg: ini.Empty()}

// Load calls Loader.Load on the DefaultLoader instance.
func Load(ctx context.Context) (string, error) {
	return DefaultLoader.Load(ctx)
}

// LoadProfile calls Loader.LoadProfile on the DefaultLoader instance.
func LoadProfile(ctx context.Context, profile string) (string, error) {
	return DefaultLoader.LoadProfile(ctx, profile)
}
