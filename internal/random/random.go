// Package random generates identifiers that must not be guessable, such as CSP nonces and names of in-memory
// databases.
package random

import (
	"crypto/rand"
	"github.com/labqa/inspection/internal/errors"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// rejectAbove is the largest multiple of len(alphabet) that fits a byte. Bytes at or above it are discarded so that
// every letter is equally likely.
const rejectAbove = 256 - 256%len(alphabet)

// Letters returns n random ASCII letters read from crypto/rand.
func Letters(n uint) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)
	for uint(len(out)) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "read random bytes")
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if uint(len(out)) == n {
				break
			}
		}
	}
	return string(out), nil
}
