package random

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// PickUnique selects n distinct elements of items uniformly at random without
// replacement, reading randomness from src. Every size-n subset is equally
// likely; the returned order is draw order. If n <= 0 the result is empty, if
// n >= len(items) a copy of all items is returned. items is never mutated.
//
// Implemented as a partial Fisher–Yates shuffle, which stays linear even when
// n approaches len(items).
func PickUnique[T any](src io.Reader, items []T, n int) ([]T, error) {
	if n <= 0 {
		return []T{}, nil
	}
	pool := make([]T, len(items))
	copy(pool, items)
	if n >= len(pool) {
		return pool, nil
	}
	for i := 0; i < n; i++ {
		j, err := intn(src, len(pool)-i)
		if err != nil {
			return nil, err
		}
		pool[i], pool[i+j] = pool[i+j], pool[i]
	}
	return pool[:n], nil
}

// Pick is PickUnique with the crypto/rand source.
func Pick[T any](items []T, n int) ([]T, error) {
	return PickUnique(rand.Reader, items, n)
}

// Shuffle performs a cryptographically secure shuffle of the slice in place.
func Shuffle[T any](slice []T) error {
	for i := len(slice) - 1; i > 0; i-- {
		j, err := intn(rand.Reader, i+1)
		if err != nil {
			return err
		}
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

func intn(src io.Reader, n int) (int, error) {
	v, err := rand.Int(src, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}
