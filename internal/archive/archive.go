package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"robotorder/internal/components/failure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("robotorder/internal/archive")

// ZipDir writes every regular file under dir into a zip archive at dest, named
// by its path relative to dir. An existing archive is replaced. It returns the
// number of files archived.
func ZipDir(ctx context.Context, dir, dest string) (int, error) {
	ctx, span := tracer.Start(ctx, "ZipDir")
	defer span.End()

	err := os.MkdirAll(filepath.Dir(dest), 0755)
	if err != nil {
		return 0, failure.Wrap(failure.ErrFilesystem, "create archive directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, failure.Wrap(failure.ErrFilesystem, "create archive", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := zip.NewWriter(tmp)
	count := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		err = addFile(w, path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		w.Close()
		tmp.Close()
		return 0, failure.Wrap(failure.ErrFilesystem, fmt.Sprintf("archive %s", dir), err)
	}

	err = w.Close()
	if err != nil {
		tmp.Close()
		return 0, failure.Wrap(failure.ErrFilesystem, "finish archive", err)
	}
	err = tmp.Close()
	if err != nil {
		return 0, failure.Wrap(failure.ErrFilesystem, "finish archive", err)
	}
	err = os.Rename(tmpPath, dest)
	if err != nil {
		return 0, failure.Wrap(failure.ErrFilesystem, fmt.Sprintf("replace %s", dest), err)
	}

	span.SetAttributes(attribute.Int("files", count))
	return count, nil
}

func addFile(w *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

// Cleanup removes the given directories and everything in them. Directories
// that don't exist are skipped.
func Cleanup(dirs ...string) error {
	for _, dir := range dirs {
		err := os.RemoveAll(dir)
		if err != nil {
			return failure.Wrap(failure.ErrFilesystem, fmt.Sprintf("remove %s", dir), err)
		}
	}
	return nil
}

// Prepare empties the given directories, creating them when missing, so an
// archive only ever holds the files of the current run.
func Prepare(dirs ...string) error {
	err := Cleanup(dirs...)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return failure.Wrap(failure.ErrFilesystem, fmt.Sprintf("create %s", dir), err)
		}
	}
	return nil
}
