package traveltimes

// SegmentCount is the number of travel time segments a stop path of the given length is divided into.
// Always at least 1 and rounded up for any fractional remainder.
func SegmentCount(pathLength float64, maxSegmentLength float64) int {
	return int(pathLength/maxSegmentLength + 1.0)
}

// SegmentLength is the length of each of the equal length travel time segments for the stop path.
// It is never longer than maxSegmentLength.
func SegmentLength(pathLength float64, maxSegmentLength float64) float64 {
	return pathLength / float64(SegmentCount(pathLength, maxSegmentLength))
}
