// Package trace decodes compressed trace blobs into waveforms.
package trace

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/OpenCosmics/sapphire/pkg/storage"
)

// ErrDecode represents a trace blob that could not be decoded. Decode
// failures indicate corrupt storage and are never retried.
type ErrDecode struct {
	Index int
	Err   error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("error decoding trace blob %d: %v", e.Index, e.Err)
}

func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// Decode reads the blob at idx and returns the waveform as ADC samples.
// The stored format is a zlib-compressed sequence of comma-separated
// decimal integers; a trailing empty field left by the encoder is
// dropped. A negative index means "no trace recorded" and is a caller
// error.
func Decode(blobs storage.BlobStore, idx int) ([]int, error) {
	if idx < 0 {
		return nil, &ErrDecode{Index: idx, Err: fmt.Errorf("negative blob index")}
	}
	raw, err := blobs.Blob(idx)
	if err != nil {
		return nil, &ErrDecode{Index: idx, Err: err}
	}
	reader, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ErrDecode{Index: idx, Err: err}
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &ErrDecode{Index: idx, Err: err}
	}

	fields := strings.Split(string(data), ",")
	if len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	samples := make([]int, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, &ErrDecode{Index: idx, Err: err}
		}
		samples[i] = value
	}
	return samples, nil
}
