package storage

// copyColumnValue copies one logical column from src into dst.
func copyColumnValue(dst *Event, src Event, column string) error {
	switch column {
	case "event_id":
		dst.EventID = src.EventID
	case "timestamp":
		dst.Timestamp = src.Timestamp
	case "baseline":
		dst.Baseline = src.Baseline
	case "pulseheights":
		dst.Pulseheights = src.Pulseheights
	case "integrals":
		dst.Integrals = src.Integrals
	case "traces":
		dst.Traces = src.Traces
	case "t1", "t2", "t3", "t4", "n1", "n2", "n3", "n4":
		isTime, det, err := floatColumn(column)
		if err != nil {
			return err
		}
		if isTime {
			dst.T[det] = src.T[det]
		} else {
			dst.N[det] = src.N[det]
		}
	default:
		return &ErrNoColumn{Column: column}
	}
	return nil
}

// floatColumn resolves a scalar float column name (t1..t4, n1..n4) into
// the timing/count family and the detector index.
func floatColumn(column string) (isTime bool, detector int, err error) {
	if len(column) != 2 {
		return false, 0, &ErrNoColumn{Column: column}
	}
	detector = int(column[1] - '1')
	if detector < 0 || detector >= NDetectors {
		return false, 0, &ErrNoColumn{Column: column}
	}
	switch column[0] {
	case 't':
		return true, detector, nil
	case 'n':
		return false, detector, nil
	}
	return false, 0, &ErrNoColumn{Column: column}
}
