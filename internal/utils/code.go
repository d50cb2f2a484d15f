package utils

import (
    "crypto/rand"
    "errors"
)

// codeAlphabet deliberately omits visually ambiguous symbols (0/O, 1/I/L)
// so codes survive being read over the phone or retyped from paper.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// MaxCodeAttempts bounds how many times a creation transaction may retry
// code generation after a uniqueness collision before giving up.  At 8
// characters over a 31 symbol alphabet collisions are operationally
// near-impossible, but the retry loop must not be unbounded.
const MaxCodeAttempts = 5

// ErrCodeCollision is returned by callers of NewCode when every generation
// attempt collided with an existing code.
var ErrCodeCollision = errors.New("code generation exhausted retry attempts")

// NewCode returns a random code of the given length drawn from codeAlphabet
// using crypto/rand.  The generator itself performs no uniqueness check;
// the owning entity's creation transaction detects duplicate-key violations
// and retries up to MaxCodeAttempts.
func NewCode(length int) (string, error) {
    if length <= 0 {
        length = 8
    }
    buf := make([]byte, length)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    for i := range buf {
        buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
    }
    return string(buf), nil
}
