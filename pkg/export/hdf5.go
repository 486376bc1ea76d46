package export

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// unlimited is the H5S_UNLIMITED dimension marker.
const unlimited = ^uint(0)

const (
	tableChunkRows  = 4096
	matrixChunkRows = 1024
)

// EventHDF5 is the compound row type of the exported events table. The
// field layout defines the HDF5 datatype.
type EventHDF5 struct {
	event_id  int32
	timestamp uint64
	t1        float64
	t2        float64
	t3        float64
	t4        float64
	n1        float64
	n2        float64
	n3        float64
	n4        float64
}

// newCompoundTable creates an empty extendable table whose datatype is
// derived from the prototype struct.
func newCompoundTable(group *hdf5.Group, name string, prototype interface{},
	compressionLevel int) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace([]uint{0}, []uint{unlimited})
	if err != nil {
		return nil, fmt.Errorf("dataspace for %s: %w", name, err)
	}
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("property list for %s: %w", name, err)
	}
	plist.SetChunk([]uint{tableChunkRows})
	plist.SetDeflate(compressionLevel)

	dtype, err := hdf5.NewDatatypeFromValue(prototype)
	if err != nil {
		return nil, fmt.Errorf("datatype for %s: %w", name, err)
	}
	dataset, err := group.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	return dataset, nil
}

// newInt32Matrix creates an empty extendable n-by-width int32 dataset.
func newInt32Matrix(group *hdf5.Group, name string, width int,
	compressionLevel int) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace([]uint{0, 0}, []uint{unlimited, uint(width)})
	if err != nil {
		return nil, fmt.Errorf("dataspace for %s: %w", name, err)
	}
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("property list for %s: %w", name, err)
	}
	plist.SetChunk([]uint{matrixChunkRows, uint(width)})
	plist.SetDeflate(compressionLevel)

	dataset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_INT32, space, plist)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	return dataset, nil
}

// appendRecord grows the table by one row written at offset.
func appendRecord[T any](dataset *hdf5.Dataset, record T, offset int) error {
	records := []T{record}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{1}, nil)
	if err != nil {
		return err
	}
	defer memSpace.Close()

	if err := dataset.Resize([]uint{uint(offset) + 1}); err != nil {
		return err
	}
	fileSpace := dataset.Space()
	defer fileSpace.Close()
	if err := fileSpace.SelectHyperslab([]uint{uint(offset)}, nil, []uint{1}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(&records, memSpace, fileSpace)
}

// appendMatrixRow grows the matrix by one row of width values written at
// offset.
func appendMatrixRow(dataset *hdf5.Dataset, row []int32, offset int) error {
	width := uint(len(row))
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{1, width}, nil)
	if err != nil {
		return err
	}
	defer memSpace.Close()

	if err := dataset.Resize([]uint{uint(offset) + 1, width}); err != nil {
		return err
	}
	fileSpace := dataset.Space()
	defer fileSpace.Close()
	if err := fileSpace.SelectHyperslab([]uint{uint(offset), 0}, nil, []uint{1, width}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(&row, memSpace, fileSpace)
}
