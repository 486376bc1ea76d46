// Package export writes a finished results table to an HDF5 file for
// downstream analysis tooling. The export is one-way and archival; the
// pipeline itself never reads these files back.
package export

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	"github.com/OpenCosmics/sapphire/pkg/progress"
	"github.com/OpenCosmics/sapphire/pkg/storage"
)

// Writer streams processed events into an HDF5 file: a compound events
// table with the derived timing and count columns, and per-detector
// matrices for the carried-over raw observables.
type Writer struct {
	file     *hdf5.File
	runGroup *hdf5.Group
	rawGroup *hdf5.Group

	eventTable   *hdf5.Dataset
	baselines    *hdf5.Dataset
	pulseheights *hdf5.Dataset
	integrals    *hdf5.Dataset

	written int
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	file, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filename, err)
	}
	w := &Writer{file: file}

	if w.runGroup, err = file.CreateGroup("Run"); err != nil {
		return nil, err
	}
	if w.rawGroup, err = file.CreateGroup("RD"); err != nil {
		return nil, err
	}
	if w.eventTable, err = newCompoundTable(w.runGroup, "events", EventHDF5{}, compressionLevel); err != nil {
		return nil, err
	}
	if w.baselines, err = newInt32Matrix(w.rawGroup, "baselines", storage.NDetectors, compressionLevel); err != nil {
		return nil, err
	}
	if w.pulseheights, err = newInt32Matrix(w.rawGroup, "pulseheights", storage.NDetectors, compressionLevel); err != nil {
		return nil, err
	}
	if w.integrals, err = newInt32Matrix(w.rawGroup, "integrals", storage.NDetectors, compressionLevel); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) WriteEvent(ev *storage.Event) error {
	entry := EventHDF5{
		event_id:  int32(ev.EventID),
		timestamp: ev.Timestamp,
		t1:        ev.T[0], t2: ev.T[1], t3: ev.T[2], t4: ev.T[3],
		n1: ev.N[0], n2: ev.N[1], n3: ev.N[2], n4: ev.N[3],
	}
	if err := appendRecord(w.eventTable, entry, w.written); err != nil {
		return err
	}
	if err := appendMatrixRow(w.baselines, ev.Baseline[:], w.written); err != nil {
		return err
	}
	if err := appendMatrixRow(w.pulseheights, ev.Pulseheights[:], w.written); err != nil {
		return err
	}
	if err := appendMatrixRow(w.integrals, ev.Integrals[:], w.written); err != nil {
		return err
	}
	w.written++
	return nil
}

func (w *Writer) Close() error {
	// Datasets and groups must be closed before the file.
	closers := []struct {
		name   string
		closer interface{ Close() error }
	}{
		{"event table", w.eventTable},
		{"baselines", w.baselines},
		{"pulseheights", w.pulseheights},
		{"integrals", w.integrals},
		{"run group", w.runGroup},
		{"raw group", w.rawGroup},
		{"file", w.file},
	}
	var errs []error
	for _, c := range closers {
		if c.closer == nil {
			continue
		}
		if err := c.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

type eventWriter interface {
	WriteEvent(ev *storage.Event) error
}

// writeRows streams rows into the writer, stepping the reporter per
// row. The reporter is finished even when a write fails.
func writeRows(w eventWriter, rows []storage.Event, reporter progress.Reporter) error {
	defer reporter.Finish()
	for i := range rows {
		if err := w.WriteEvent(&rows[i]); err != nil {
			return err
		}
		reporter.Step(1)
	}
	return nil
}

// ExportTable writes the named table from the store into an HDF5 file.
func ExportTable(store storage.Store, name string, filename string, compressionLevel int) error {
	table, err := store.Table(name)
	if err != nil {
		return err
	}
	rows, err := table.Rows(0)
	if err != nil {
		return err
	}

	writer, err := NewWriter(filename, compressionLevel)
	if err != nil {
		return err
	}
	reporter := progress.New(len(rows), "exporting "+name)
	if err := writeRows(writer, rows, reporter); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
