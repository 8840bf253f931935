// Package archive packages a successful build into a flashable tar.xz
// bundle with a sha256 sidecar.
package archive

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/kforge/kforge/src/common/errors"
)

// Options describes what to package.
type Options struct {
	// OutputDir is where the archive and its sidecar are written.
	OutputDir string

	// ImagePath is the built kernel image to bundle.
	ImagePath string

	KernelRelease  string
	DisplayVersion string
}

// Create writes the tar.xz bundle and its checksum sidecar, returning
// the archive path and the hex sha256 of the archive.
func Create(opts Options) (string, string, error) {
	name := opts.DisplayVersion
	if name == "" {
		name = "kernel"
	}
	release := opts.KernelRelease
	if release == "" {
		release = "unknown"
	}
	base := fmt.Sprintf("%s-%s.tar.xz", strings.ReplaceAll(name, " ", "-"), release)
	archivePath := filepath.Join(opts.OutputDir, base)

	if err := writeBundle(archivePath, opts); err != nil {
		return "", "", err
	}

	checksum, err := Checksum(archivePath)
	if err != nil {
		return "", "", errors.ErrArchiveCreate.WithCause(err)
	}

	sidecar := archivePath + ".sha256"
	content := fmt.Sprintf("%s  %s\n", checksum, base)
	if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
		return "", "", errors.ErrArchiveCreate.WithCause(err)
	}

	return archivePath, checksum, nil
}

func writeBundle(archivePath string, opts Options) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return errors.ErrArchiveCreate.WithCause(err)
	}
	defer f.Close()

	xzWriter, err := xz.NewWriter(f)
	if err != nil {
		return errors.ErrArchiveCreate.WithCause(err)
	}
	tw := tar.NewWriter(xzWriter)

	imageName := "boot/" + filepath.Base(opts.ImagePath)
	if err := addFile(tw, opts.ImagePath, imageName); err != nil {
		return errors.ErrArchiveCreate.WithCause(err)
	}
	if err := addBytes(tw, "banner.txt", renderBanner(opts)); err != nil {
		return errors.ErrArchiveCreate.WithCause(err)
	}

	if err := tw.Close(); err != nil {
		return errors.ErrArchiveCreate.WithCause(err)
	}
	if err := xzWriter.Close(); err != nil {
		return errors.ErrArchiveCreate.WithCause(err)
	}
	return f.Close()
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

func addBytes(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func renderBanner(opts Options) []byte {
	var b strings.Builder
	if opts.DisplayVersion != "" {
		fmt.Fprintf(&b, "Version: %s\n", opts.DisplayVersion)
	}
	fmt.Fprintf(&b, "Kernel release: %s\n", opts.KernelRelease)
	fmt.Fprintf(&b, "Built: %s\n", time.Now().Format(time.RFC1123))
	return []byte(b.String())
}

// Checksum returns the hex sha256 of a file.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
