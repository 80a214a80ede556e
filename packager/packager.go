// Package packager produces versioned zip files from a directory, a zip file, or a (compressed) tar file.
//
// The output is always "<LocalVerDir>/<Target>/<Version>.zip", whose first entry is "version.txt" containing the
// version followed by a newline. The output is written to a ".new" file first, then rolled in place so that the
// previous output (if any) is kept as a ".bak" file.
package packager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/pvzip/archive"
	"github.com/nguyengg/pvzip/internal"
	"github.com/nguyengg/pvzip/util"
	"golang.org/x/time/rate"
)

// VersionFile is the name of the first entry of every produced zip file.
const VersionFile = "version.txt"

// Result describes a successfully produced zip file.
type Result struct {
	// Path is the final location of the zip file.
	Path string
	// Backup is the location of the previous zip file, empty if there was none.
	Backup string
	// Target and Version are the validated values used to name Path.
	Target, Version string
	// Files is the number of files copied from the source, not counting VersionFile.
	Files int
	// Size is the total uncompressed size of the copied files.
	Size int64
}

// Package copies every file from src into a new versioned zip file.
//
// Target and Version are inferred from the source name (see InferFromName) if not given via Options, except for
// directories. Both are validated with ValidateName before anything is written.
func Package(ctx context.Context, src *Source, optFns ...func(*Options)) (*Result, error) {
	opts := newOptions(optFns)

	target, version := opts.Target, opts.Version
	if src.Kind != KindDir && (target == "" || version == "") {
		t, v := InferFromName(src.Name)
		if target == "" {
			target = t
		}
		if version == "" {
			version = v
		}
	}

	if err := ValidateName("target", target); err != nil {
		return nil, err
	}
	if err := ValidateName("version", version); err != nil {
		return nil, err
	}

	dir, err := ensureDir(opts.LocalVerDir, target)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:    filepath.Join(dir, version+".zip"),
		Target:  target,
		Version: version,
	}
	newPath := res.Path + ".new"

	opts.Logger.Printf(`producing "%s" from %s`, res.Path, src)

	if err = res.write(ctx, src, newPath, opts); err != nil {
		_ = os.Remove(newPath)
		return nil, err
	}

	if res.Backup, err = rollIn(newPath, res.Path, res.Path+".bak"); err != nil {
		return nil, err
	}

	opts.Logger.Printf(`produced "%s" with %d files (%s)`, res.Path, res.Files, humanize.IBytes(uint64(res.Size)))
	return res, nil
}

func (res *Result) write(ctx context.Context, src *Source, name string, opts *Options) (err error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf(`create file "%s" error: %w`, name, err)
	}

	bw := bufio.NewWriter(f)
	add, closer, err := archive.Zip{}.Create(bw, "")
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("create zip writer error: %w", err)
	}

	// on success, the zip writer must be closed before its buffer is flushed and the file closed.
	defer func() {
		if err == nil {
			err = util.ChainCloser(closer, bw.Flush, f.Close)()
		} else {
			_ = f.Close()
		}
	}()

	w, err := add(VersionFile, versionFileInfo{size: int64(len(res.Version) + 1), modTime: time.Now()})
	if err != nil {
		return err
	}
	if _, err = io.WriteString(w, res.Version+"\n"); err != nil {
		return fmt.Errorf("write %s error: %w", VersionFile, err)
	}

	bar := internal.DefaultBytes(-1, "packaging", opts.Quiet)
	defer bar.Close()

	sometimes := rate.Sometimes{Interval: 5 * time.Second}
	sometimes.Do(func() {})

	buf := make([]byte, 32*1024)
	for file, err := range src.Files() {
		if err != nil {
			return fmt.Errorf("read source error: %w", err)
		}

		n, err := copyFile(ctx, add, file, bar, buf)
		if err != nil {
			return err
		}

		res.Files++
		res.Size += n

		sometimes.Do(func() {
			opts.Logger.Printf("packaged %d files (%s) so far", res.Files, humanize.IBytes(uint64(res.Size)))
		})
	}

	return nil
}

func copyFile(ctx context.Context, add archive.AddFunction, file archive.File, progress io.Writer, buf []byte) (int64, error) {
	w, err := add(file.Name(), file.FileInfo())
	if err != nil {
		return 0, err
	}

	r, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf(`open "%s" error: %w`, file.Name(), err)
	}
	defer r.Close()

	n, err := util.CopyBufferWithContext(ctx, io.MultiWriter(w, progress), r, buf)
	if err != nil {
		return n, fmt.Errorf(`copy "%s" error: %w`, file.Name(), err)
	}

	if err = w.Close(); err != nil {
		return n, fmt.Errorf(`close "%s" error: %w`, file.Name(), err)
	}

	return n, nil
}

// ensureDir creates "<root>/<target>" as needed and returns it.
func ensureDir(root, target string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("local-ver-dir is required")
	}

	dir := filepath.Join(root, target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf(`create directory "%s" error: %w`, dir, err)
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf(`stat directory "%s" error: %w`, dir, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf(`"%s" is not a directory`, dir)
	}

	return dir, nil
}

// rollIn renames newPath to path, keeping the existing path (if any) as bakPath.
//
// Returns bakPath if a previous file was kept, empty string otherwise.
func rollIn(newPath, path, bakPath string) (string, error) {
	switch _, err := os.Stat(path); {
	case errors.Is(err, fs.ErrNotExist):
		bakPath = ""
	case err != nil:
		return "", fmt.Errorf(`stat "%s" error: %w`, path, err)
	default:
		if err = os.Remove(bakPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf(`remove old backup "%s" error: %w`, bakPath, err)
		}

		if err = os.Rename(path, bakPath); err != nil {
			return "", fmt.Errorf(`back up "%s" error: %w`, path, err)
		}
	}

	if err := os.Rename(newPath, path); err != nil {
		return "", fmt.Errorf(`rename "%s" to "%s" error: %w`, newPath, path, err)
	}

	return bakPath, nil
}

type versionFileInfo struct {
	size    int64
	modTime time.Time
}

func (v versionFileInfo) Name() string       { return VersionFile }
func (v versionFileInfo) Size() int64        { return v.size }
func (v versionFileInfo) Mode() fs.FileMode  { return 0644 }
func (v versionFileInfo) ModTime() time.Time { return v.modTime }
func (v versionFileInfo) IsDir() bool        { return false }
func (v versionFileInfo) Sys() any           { return nil }
