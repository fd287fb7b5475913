package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadTaskLengths reads up to count whitespace-separated integers from path
// and returns base + value for each. count <= 0 reads the whole file.
func LoadTaskLengths(path string, count int, base float64) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening task dataset: %w", err)
	}
	defer f.Close()
	lengths, err := ReadTaskLengths(f, count, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lengths, nil
}

// ReadTaskLengths is LoadTaskLengths over an io.Reader. Fewer values than a
// positive count is an error.
func ReadTaskLengths(r io.Reader, count int, base float64) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var lengths []float64
	if count > 0 {
		lengths = make([]float64, 0, count)
	}
	for (count <= 0 || len(lengths) < count) && scanner.Scan() {
		v, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(lengths)+1, err)
		}
		length := base + float64(v)
		if length <= 0 {
			return nil, fmt.Errorf("value %d: task length %g must be positive", len(lengths)+1, length)
		}
		lengths = append(lengths, length)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading task dataset: %w", err)
	}
	if count > 0 && len(lengths) < count {
		return nil, fmt.Errorf("dataset has %d values, %d requested", len(lengths), count)
	}
	return lengths, nil
}
