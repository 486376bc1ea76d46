// Package process orchestrates the reconstruction of event observables
// from raw detector records into a results table.
package process

import (
	"fmt"
	"math"

	"github.com/OpenCosmics/sapphire/pkg/mip"
	"github.com/OpenCosmics/sapphire/pkg/progress"
	"github.com/OpenCosmics/sapphire/pkg/storage"
	"github.com/OpenCosmics/sapphire/pkg/timing"
	"github.com/OpenCosmics/sapphire/pkg/trace"
)

const (
	// DefaultTableName is the destination when none is requested.
	DefaultTableName = "events"
	// ReservedTableName holds the pre-swap original events and must
	// never be a user-requested destination.
	ReservedTableName = "_events"
	// StagingTableName is the detached table the pipeline populates
	// before publishing.
	StagingTableName = "_t_events"
)

// Processor reconstructs arrival times and particle counts for a source
// events table and publishes them as a results table.
//
// The variation points of a processing run are injected independently:
// the timing strategy (WithStrategy), the row selection (WithIndexes for
// a coincidence subset, the full range otherwise) and trace usage
// (WithoutTraces). All combinations share this one orchestration.
type Processor struct {
	store  storage.Store
	blobs  storage.BlobStore
	config Config

	source    storage.Table
	strategy  timing.Reconstructor
	finder    *mip.Finder
	reporter  progress.Factory
	indexes   []int
	useTraces bool

	limit       int
	destination string
	staging     storage.Table
}

// Option configures a Processor.
type Option func(*Processor)

// WithStrategy selects the arrival-time reconstruction strategy.
func WithStrategy(strategy timing.Reconstructor) Option {
	return func(p *Processor) {
		p.strategy = strategy
	}
}

// WithIndexes restricts processing to the source rows at the given
// indexes, in that order. Used for events that form part of a
// recognized coincidence.
func WithIndexes(indexes []int) Option {
	return func(p *Processor) {
		p.indexes = indexes
	}
}

// WithoutTraces skips timing reconstruction entirely, leaving the timing
// columns at their no-data default. Particle counts are still computed.
func WithoutTraces() Option {
	return func(p *Processor) {
		p.useTraces = false
	}
}

// WithFinder overrides the MIP peak finder.
func WithFinder(finder *mip.Finder) Option {
	return func(p *Processor) {
		p.finder = finder
	}
}

// WithReporter overrides the progress reporter factory.
func WithReporter(factory progress.Factory) Option {
	return func(p *Processor) {
		p.reporter = factory
	}
}

// NewProcessor binds a processor to the source table named source inside
// the store. An empty source name resolves to the reserved pre-swap
// table when present, the default events table otherwise.
func NewProcessor(store storage.Store, blobs storage.BlobStore, config Config,
	source string, opts ...Option) (*Processor, error) {
	p := &Processor{
		store:     store,
		blobs:     blobs,
		config:    config,
		useTraces: true,
		strategy: timing.NearestSample{
			Threshold:    config.Threshold,
			SamplePeriod: config.SamplePeriod,
		},
	}
	bins := mip.PulseheightBins
	if config.UseIntegrals {
		bins = mip.IntegralBins
	}
	p.finder = mip.NewFinder(bins)
	if config.Verbosity > 0 {
		p.reporter = progress.New
	} else {
		p.reporter = progress.Discard
	}

	name := source
	if name == "" {
		if store.HasTable(ReservedTableName) {
			name = ReservedTableName
		} else {
			name = DefaultTableName
		}
	}
	table, err := store.Table(name)
	if err != nil {
		return nil, err
	}
	p.source = table

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Source returns the table the processor currently reads from.
func (p *Processor) Source() storage.Table {
	return p.source
}

// ProcessAndStoreResults processes the source events and publishes the
// results under destination ("" means the default name). A destination
// occupied by a table other than the source requires overwrite. At most
// limit events are processed when limit > 0.
//
// All results are staged into a detached table first; a failure during
// reconstruction leaves the source and any existing destination
// untouched.
func (p *Processor) ProcessAndStoreResults(destination string, overwrite bool, limit int) error {
	p.limit = limit

	if err := p.checkDestination(destination, overwrite); err != nil {
		return err
	}
	if err := p.createResultsTable(); err != nil {
		return err
	}
	if p.useTraces {
		if err := p.storeResultsFromTraces(); err != nil {
			return err
		}
	}
	if err := p.storeNumberOfParticles(); err != nil {
		return err
	}
	return p.moveResultsTableIntoDestination()
}

func (p *Processor) checkDestination(destination string, overwrite bool) error {
	if destination == ReservedTableName {
		return &ErrDestination{Name: destination, Reason: "reserved for internal use"}
	}
	if destination == "" {
		destination = DefaultTableName
	}
	// If destination == source, the source will be moved out of the way
	// during publishing, which is always allowed.
	if p.source.Name() != destination && p.store.HasTable(destination) && !overwrite {
		return &ErrDestination{Name: destination,
			Reason: "table exists and overwrite was not requested"}
	}
	p.destination = destination
	return nil
}

func (p *Processor) resultLength() int {
	if p.indexes != nil {
		return len(p.indexes)
	}
	length := p.source.Len()
	if p.limit > 0 && p.limit < length {
		length = p.limit
	}
	return length
}

func (p *Processor) createResultsTable() error {
	if p.store.HasTable(StagingTableName) {
		if err := p.store.RemoveTable(StagingTableName); err != nil {
			return err
		}
	}
	length := p.resultLength()
	staging, err := p.store.CreateTable(StagingTableName, length)
	if err != nil {
		return err
	}
	if err := staging.AppendEmpty(length); err != nil {
		return err
	}
	p.staging = staging
	return p.copyEventsIntoTable()
}

func (p *Processor) copyEventsIntoTable() error {
	reporter := p.reporter(len(storage.ColumnNames), "copying columns")
	defer reporter.Finish()

	for _, column := range storage.ColumnNames {
		var err error
		if p.indexes != nil {
			err = p.staging.CopyColumnAt(p.source, column, p.indexes)
		} else {
			err = p.staging.CopyColumnFrom(p.source, column, p.limit)
		}
		if err != nil {
			return err
		}
		reporter.Step(1)
	}
	return p.staging.Flush()
}

// selectedEvents returns the source rows this run processes.
func (p *Processor) selectedEvents() ([]storage.Event, error) {
	if p.indexes != nil {
		return p.source.RowSequence(p.indexes)
	}
	return p.source.Rows(p.limit)
}

func (p *Processor) storeResultsFromTraces() error {
	events, err := p.selectedEvents()
	if err != nil {
		return err
	}
	timings, err := p.processTraceList(events)
	if err != nil {
		return err
	}

	if p.indexes != nil {
		// Sparse results use row-level mutation with an explicit commit.
		for j := range timings {
			row, err := p.staging.Row(j)
			if err != nil {
				return err
			}
			row.T = timings[j]
			if err := p.staging.UpdateRow(j, row); err != nil {
				return err
			}
		}
		return p.staging.Flush()
	}

	for d := 0; d < storage.NDetectors; d++ {
		column := fmt.Sprintf("t%d", d+1)
		values := make([]float64, len(timings))
		for i := range timings {
			values[i] = timings[i][d]
		}
		if err := p.staging.WriteFloats(column, values); err != nil {
			return err
		}
	}
	return p.staging.Flush()
}

// ProcessTraces reconstructs arrival times for the first limit source
// events (all of them when limit <= 0) without storing anything. The
// returned times are in nanoseconds with no-data values set to the
// storage sentinel.
func (p *Processor) ProcessTraces(limit int) ([][storage.NDetectors]float64, error) {
	p.limit = limit
	events, err := p.selectedEvents()
	if err != nil {
		return nil, err
	}
	return p.processTraceList(events)
}

func (p *Processor) processTraceList(events []storage.Event) ([][storage.NDetectors]float64, error) {
	if p.config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("reconstructing arrival times for %d events", len(events)), "process")
	}
	var timings [][storage.NDetectors]float64
	var err error
	if p.config.NumWorkers > 1 {
		timings, err = p.reconstructParallel(events)
	} else {
		timings, err = p.reconstructSequential(events)
	}
	if err != nil {
		return nil, err
	}
	for i := range timings {
		timings[i] = toNanoseconds(timings[i])
	}
	return timings, nil
}

func (p *Processor) reconstructSequential(events []storage.Event) ([][storage.NDetectors]float64, error) {
	reporter := p.reporter(len(events), "reconstructing timings")
	defer reporter.Finish()

	timings := make([][storage.NDetectors]float64, len(events))
	for i := range events {
		times, err := p.reconstructTimes(events[i])
		if err != nil {
			return nil, err
		}
		timings[i] = times
		reporter.Step(1)
	}
	return timings, nil
}

// reconstructTimes returns the per-detector arrival times of one event,
// in seconds, NaN for detectors without a usable signal.
func (p *Processor) reconstructTimes(ev storage.Event) ([storage.NDetectors]float64, error) {
	var times [storage.NDetectors]float64
	threshold := int32(p.strategy.SignalThreshold())
	for d := 0; d < storage.NDetectors; d++ {
		if ev.Pulseheights[d] < threshold {
			times[d] = math.NaN()
			continue
		}
		samples, err := trace.Decode(p.blobs, int(ev.Traces[d]))
		if err != nil {
			return times, err
		}
		times[d] = p.strategy.ReconstructTime(samples, int(ev.Baseline[d]))
	}
	return times, nil
}

func toNanoseconds(times [storage.NDetectors]float64) [storage.NDetectors]float64 {
	for d := range times {
		if math.IsNaN(times[d]) {
			times[d] = storage.NoDataTime
		} else {
			times[d] = times[d] * 1e9
		}
	}
	return times
}

func (p *Processor) storeNumberOfParticles() error {
	// The MIP constants always come from the complete population, never
	// from the processed subset.
	population, err := p.source.Rows(p.limit)
	if err != nil {
		return err
	}
	var pulses [mip.NDetectors][]float64
	for d := 0; d < mip.NDetectors; d++ {
		pulses[d] = make([]float64, len(population))
		for i := range population {
			pulses[d][i] = p.measurement(population[i], d)
		}
	}
	fits, err := p.finder.FindMPV(pulses)
	if err != nil {
		return err
	}
	if p.config.Verbosity > 0 {
		for d, fit := range fits {
			logger.Info(fmt.Sprintf("detector %d: mpv %.1f (no fit: %t)", d+1, fit.MPV(), fit.NoFit), "process")
		}
	}

	if p.indexes != nil {
		for j := 0; j < p.staging.Len(); j++ {
			row, err := p.staging.Row(j)
			if err != nil {
				return err
			}
			for d := 0; d < storage.NDetectors; d++ {
				row.N[d] = p.measurement(row, d) / fits[d].MPV()
			}
			if err := p.staging.UpdateRow(j, row); err != nil {
				return err
			}
		}
		return p.staging.Flush()
	}

	staged, err := p.staging.Rows(0)
	if err != nil {
		return err
	}
	for d := 0; d < storage.NDetectors; d++ {
		values := make([]float64, len(staged))
		for i := range staged {
			values[i] = p.measurement(staged[i], d)
		}
		counts := mip.Counts(values, fits[d].MPV())
		if err := p.staging.WriteFloats(fmt.Sprintf("n%d", d+1), counts); err != nil {
			return err
		}
	}
	return p.staging.Flush()
}

func (p *Processor) measurement(ev storage.Event, detector int) float64 {
	if p.config.UseIntegrals {
		return float64(ev.Integrals[detector])
	}
	return float64(ev.Pulseheights[detector])
}

func (p *Processor) moveResultsTableIntoDestination() error {
	if p.source.Name() == p.destination {
		if err := p.store.RenameTable(p.source.Name(), ReservedTableName); err != nil {
			return err
		}
		source, err := p.store.Table(ReservedTableName)
		if err != nil {
			return err
		}
		p.source = source
	}
	if p.store.HasTable(p.destination) {
		if err := p.store.RemoveTable(p.destination); err != nil {
			return err
		}
	}
	if err := p.store.RenameTable(StagingTableName, p.destination); err != nil {
		return err
	}
	p.staging = nil
	if p.config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("results published as %q", p.destination), "process")
	}
	return nil
}

// TracesForEvent decodes the recorded traces of one event, skipping
// detectors without a trace.
func (p *Processor) TracesForEvent(ev storage.Event) ([][]int, error) {
	var traces [][]int
	for _, idx := range ev.Traces {
		if idx < 0 {
			continue
		}
		samples, err := trace.Decode(p.blobs, int(idx))
		if err != nil {
			return nil, err
		}
		traces = append(traces, samples)
	}
	return traces, nil
}

// TracesForEventIndex decodes the traces of source event #idx.
func (p *Processor) TracesForEventIndex(idx int) ([][]int, error) {
	ev, err := p.source.Row(idx)
	if err != nil {
		return nil, err
	}
	return p.TracesForEvent(ev)
}
