// Package shortener generates the random Base62 names used for payment
// references, invoice files and uploaded images.
package shortener

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// unbiased is the number of byte values that map evenly onto alphabet.
const unbiased = 256 - 256%len(alphabet)

// Base62 returns n characters drawn uniformly from alphabet.
func Base62(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("shortener: length must be positive, got %d", n)
	}

	out := make([]byte, 0, n)
	var pool [64]byte
	for len(out) < n {
		if _, err := rand.Read(pool[:]); err != nil {
			return "", fmt.Errorf("shortener: %w", err)
		}
		for _, b := range pool {
			if int(b) < unbiased && len(out) < n {
				out = append(out, alphabet[int(b)%len(alphabet)])
			}
		}
	}
	return string(out), nil
}

// Reference is four Base62 characters followed by the unix time of now,
// for example "aB3x1700000000".
func Reference(now time.Time) (string, error) {
	prefix, err := Base62(4)
	if err != nil {
		return "", err
	}
	return prefix + strconv.FormatInt(now.Unix(), 10), nil
}
