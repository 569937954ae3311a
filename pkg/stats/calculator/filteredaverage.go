package calculator

import "math"

// FilteredAverage is the mean of the samples after discarding outliers. A sample is an outlier when it is
// further from the plain mean than |mean| * retainFraction. If every sample is an outlier the plain mean is
// used. The result is rounded to the nearest msec. An empty list returns 0.
func FilteredAverage(samples []int64, retainFraction float64) int64 {
	if len(samples) == 0 {
		return 0
	}
	if len(samples) == 1 {
		return samples[0]
	}

	mean := average(samples)
	allowedDeviation := math.Abs(mean) * retainFraction

	var retainedTotal float64
	retainedCount := 0

	for _, sample := range samples {
		if math.Abs(float64(sample)-mean) <= allowedDeviation {
			retainedTotal += float64(sample)
			retainedCount += 1
		}
	}

	if retainedCount == 0 {
		return int64(math.Round(mean))
	}

	return int64(math.Round(retainedTotal / float64(retainedCount)))
}

func average(samples []int64) float64 {
	var total float64
	for _, sample := range samples {
		total += float64(sample)
	}

	return total / float64(len(samples))
}
