package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCosmics/sapphire/pkg/storage"
)

type recordingReporter struct {
	steps    int
	finishes int
}

func (r *recordingReporter) Step(n int) { r.steps += n }
func (r *recordingReporter) Finish()    { r.finishes++ }

type failingWriter struct {
	writes int
	failAt int
}

func (w *failingWriter) WriteEvent(ev *storage.Event) error {
	if w.writes == w.failAt {
		return errors.New("write failed")
	}
	w.writes++
	return nil
}

func TestWriteRowsStepsPerRow(t *testing.T) {
	rows := make([]storage.Event, 3)
	reporter := &recordingReporter{}

	err := writeRows(&failingWriter{failAt: -1}, rows, reporter)
	require.NoError(t, err)
	assert.Equal(t, 3, reporter.steps)
	assert.Equal(t, 1, reporter.finishes)
}

func TestWriteRowsFinishesReporterOnError(t *testing.T) {
	rows := make([]storage.Event, 5)
	reporter := &recordingReporter{}

	err := writeRows(&failingWriter{failAt: 2}, rows, reporter)
	require.Error(t, err)
	assert.Equal(t, 2, reporter.steps)
	assert.Equal(t, 1, reporter.finishes)
}
