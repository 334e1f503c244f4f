// Package bundle packages the artifacts of a composition run for delivery.
//
// After a successful run the exported PDF is checked and zipped into
// magazine.zip beside it:
//
//	if err := bundle.VerifyPDF(res.Artifacts.PDF); err != nil { ... }
//	zipPath, err := bundle.Write(filepath.Join(outDir, bundle.FileName), res.Artifacts.PDF)
package bundle

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/aizine/pkg/errors"
)

// FileName is the bundle written next to the exported PDF.
const FileName = "magazine.zip"

var pdfMagic = []byte("%PDF-")

// VerifyPDF checks that path exists and starts with a PDF header.
func VerifyPDF(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "pdf not found: %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return errors.New(errors.ErrCodeExport, "%s is not a PDF", path)
	}
	return nil
}

// Write creates a zip archive at dst holding each file under its base name.
// The archive is written to a temporary file first and renamed into place.
func Write(dst string, files ...string) (string, error) {
	if len(files) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "nothing to bundle")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create %s", filepath.Dir(dst))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".bundle-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create bundle")
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	for _, path := range files {
		if err := add(zw, path); err != nil {
			zw.Close()
			tmp.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodeIO, err, "finish bundle")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "finish bundle")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "write %s", dst)
	}
	return dst, nil
}

func add(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "bundle input not found: %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "stat %s", path)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "header for %s", path)
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "add %s", path)
	}
	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "add %s", path)
	}
	return nil
}

// List returns the entry names of a bundle.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open bundle %s", path)
	}
	defer r.Close()

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	return names, nil
}
