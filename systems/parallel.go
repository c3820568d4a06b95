package systems

import (
	"runtime"
	"sync"
)

// parallelRange runs fn for each i in [start, end), split into one chunk per
// available CPU. It returns once every chunk has finished.
func parallelRange(start, end int, fn func(i int)) {
	total := end - start
	if total <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > total {
		workers = total
	}
	chunk := (total + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		s := start + w*chunk
		if s >= end {
			break
		}
		e := s + chunk
		if e > end {
			e = end
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(s, e)
	}
	wg.Wait()
}
