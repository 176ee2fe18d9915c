// Package huffman implements Huffman coding primitives for byte streams.
// Huffman coding is an entropy encoding technique that assigns short bit
// patterns to frequent symbols, building an optimal prefix tree by
// repeatedly merging the two lowest-weight nodes.
package huffman

import (
	"runtime"
	"sync"
)

// Symbol is a single byte value from the closed 0-255 input alphabet.
type Symbol = byte

// FrequencyTable maps each symbol occurring in the input to its
// occurrence count. Symbols that never occur have no entry.
type FrequencyTable map[Symbol]uint64

// parallelThreshold is the input size in bytes above which Count
// tallies shards of the input concurrently.
const parallelThreshold = 64 << 10

// Count tallies the occurrences of every byte value in data.
// Empty input yields an empty table.
func Count(data []byte) FrequencyTable {
	if len(data) >= parallelThreshold {
		return countParallel(data)
	}

	var tally [256]uint64
	for _, b := range data {
		tally[b]++
	}
	return tableFrom(&tally)
}

// countParallel splits data into one shard per worker, tallies each
// shard into a local array, and sums the partial tallies. The result
// is identical to a sequential count.
func countParallel(data []byte) FrequencyTable {
	workers := runtime.GOMAXPROCS(0)
	if workers > 8 {
		workers = 8
	}
	shard := (len(data) + workers - 1) / workers

	tallies := make([][256]uint64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := w * shard
		if begin >= len(data) {
			break
		}
		end := begin + shard
		if end > len(data) {
			end = len(data)
		}

		wg.Add(1)
		go func(tally *[256]uint64, part []byte) {
			defer wg.Done()
			for _, b := range part {
				tally[b]++
			}
		}(&tallies[w], data[begin:end])
	}
	wg.Wait()

	var total [256]uint64
	for w := range tallies {
		for b, n := range tallies[w] {
			total[b] += n
		}
	}
	return tableFrom(&total)
}

func tableFrom(tally *[256]uint64) FrequencyTable {
	ft := make(FrequencyTable)
	for b, n := range tally {
		if n > 0 {
			ft[Symbol(b)] = n
		}
	}
	return ft
}

// Total returns the sum of all counts, which equals the length of the
// counted input.
func (ft FrequencyTable) Total() uint64 {
	var total uint64
	for _, n := range ft {
		total += n
	}
	return total
}

// Probabilities returns the relative frequency of every symbol in the
// table. Returns nil for an empty table.
func (ft FrequencyTable) Probabilities() map[Symbol]float64 {
	if len(ft) == 0 {
		return nil
	}

	total := float64(ft.Total())
	probs := make(map[Symbol]float64, len(ft))
	for sym, n := range ft {
		probs[sym] = float64(n) / total
	}
	return probs
}
