package corpus

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

// Normalize produces the canonical text a solve is identified by. Solver,
// scramble, and reconstruction are lowercased, whitespace-collapsed, and
// joined with newlines so a reformatted file yields the same identity.
// Move counts and metadata stay out of the hash: correcting a miscounted
// segment must not create a new solve.
func Normalize(s *domain.Solve) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.Join(strings.Fields(p), " ")
	}

	return strings.Join([]string{
		normalizePart(s.Solver),
		normalizePart(s.Scramble),
		normalizePart(s.Reconstruction),
	}, "\n")
}

// Hash returns the SHA-256 of the normalized solve as a hex string.
func Hash(s *domain.Solve) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return fmt.Sprintf("%x", sum)
}
