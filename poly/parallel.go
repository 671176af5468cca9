package poly

import (
	"runtime"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Parallelize splits [0, nbIterations) into contiguous ranges and calls work
// once per range, each on its own goroutine. Ranges never overlap.
func Parallelize(nbIterations int, work func(int, int), maxCpus ...int) {
	if nbIterations <= 0 {
		return
	}
	nbTasks := runtime.NumCPU()
	if len(maxCpus) == 1 && maxCpus[0] > 0 {
		nbTasks = maxCpus[0]
	}
	nbIterationsPerCpus := nbIterations / nbTasks

	// more CPUs than tasks: a CPU will work on exactly one iteration
	if nbIterationsPerCpus < 1 {
		nbIterationsPerCpus = 1
		nbTasks = nbIterations
	}

	var wg sync.WaitGroup

	extraTasks := nbIterations - (nbTasks * nbIterationsPerCpus)
	extraTasksOffset := 0

	for i := 0; i < nbTasks; i++ {
		wg.Add(1)
		_start := i*nbIterationsPerCpus + extraTasksOffset
		_end := _start + nbIterationsPerCpus
		if extraTasks > 0 {
			_end++
			extraTasks--
			extraTasksOffset++
		}
		go func() {
			work(_start, _end)
			wg.Done()
		}()
	}

	wg.Wait()
}

// BatchInvert modifies vec in place, with vec[i]<-vec[i]^{-1}, using the
// Montgomery batch inversion trick. buf is scratch space of the same size.
// /!\ entries must be non zero /!\
func BatchInvert(vec, buf []fr.Element) {
	if len(vec) == 0 {
		return
	}
	copy(buf, vec)
	for i := 1; i < len(vec); i++ {
		vec[i].Mul(&vec[i], &vec[i-1])
	}
	acc := vec[len(vec)-1]
	acc.Inverse(&acc)
	for i := len(vec) - 1; i > 0; i-- {
		vec[i].Mul(&acc, &vec[i-1])
		acc.Mul(&acc, &buf[i])
	}
	vec[0].Set(&acc)
}

// ParallelBatchInvert inverts every entry of vec, one Montgomery batch per range.
func ParallelBatchInvert(vec []fr.Element) {
	Parallelize(len(vec), func(start, end int) {
		buf := make([]fr.Element, end-start)
		BatchInvert(vec[start:end], buf)
	})
}
