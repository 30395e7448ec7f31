package workerpool

// NextTarget applies spec.md §4.8's scaling rule in isolation so it can be
// tested as a pure function, independent of the ticker/goroutine
// machinery that calls it every T seconds:
//
//	errors >= threshold && current > min      -> current - 1
//	errors <  threshold/2 && current < max    -> current + 1
//	otherwise                                 -> current (hold)
func NextTarget(current, min, max, errorCount, errorThreshold int) int {
	switch {
	case errorCount >= errorThreshold && current > min:
		return current - 1
	case errorCount < errorThreshold/2 && current < max:
		return current + 1
	default:
		return current
	}
}
