// Package corpus imports solve records and scrambles into the store from
// registered sources: local directories or git repositories of plain-text
// solve files.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
)

// Solve files are line-prefixed records separated by "---". Everything after
// "Reconstruction:" up to the next prefix or separator belongs to the
// reconstruction, which routinely spans several lines.
const (
	solverPrefix         = "Solver:"
	resultPrefix         = "Result:"
	competitionPrefix    = "Competition:"
	datePrefix           = "Date:"
	crossTypePrefix      = "CrossType:"
	scramblePrefix       = "Scramble:"
	reconstructionPrefix = "Reconstruction:"
	movesPrefix          = "Moves:"

	recordSeparator = "---"
	dateLayout      = "2006-01-02"
)

// ParseFile reads a solve file from the given path and extracts all records.
func ParseFile(path string) ([]domain.Solve, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all solve records. Records
// missing a solver, result, scramble, or reconstruction are rejected.
func Parse(r io.Reader) ([]domain.Solve, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var solves []domain.Solve
	var current domain.Solve
	var reconstruction []string
	inReconstruction := false
	sawField := false
	line := 0

	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	finishRecord := func() {
		if inReconstruction {
			current.Reconstruction = strings.TrimSpace(strings.Join(reconstruction, "\n"))
			reconstruction = nil
			inReconstruction = false
		}
		if sawField {
			if err := validateRecord(&current); err != nil {
				fail(fmt.Errorf("record ending at line %d: %w", line, err))
			} else {
				current.Hash = Hash(&current)
				solves = append(solves, current)
			}
		}
		current = domain.Solve{}
		sawField = false
	}

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if strings.TrimSpace(text) == recordSeparator {
			finishRecord()
			continue
		}

		prefix, rest, ok := splitPrefix(text)
		if !ok {
			if inReconstruction {
				reconstruction = append(reconstruction, text)
			}
			continue
		}

		if inReconstruction {
			current.Reconstruction = strings.TrimSpace(strings.Join(reconstruction, "\n"))
			reconstruction = nil
			inReconstruction = false
		}
		sawField = true

		switch prefix {
		case solverPrefix:
			current.Solver = rest
		case resultPrefix:
			v, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				fail(fmt.Errorf("line %d: bad result %q", line, rest))
				continue
			}
			current.Result = v
		case competitionPrefix:
			current.Competition = rest
		case datePrefix:
			t, err := time.Parse(dateLayout, rest)
			if err != nil {
				fail(fmt.Errorf("line %d: bad date %q", line, rest))
				continue
			}
			current.SolveDate = &t
		case crossTypePrefix:
			current.CrossType = rest
		case scramblePrefix:
			current.Scramble = rest
		case reconstructionPrefix:
			inReconstruction = true
			if rest != "" {
				reconstruction = append(reconstruction, rest)
			}
		case movesPrefix:
			if err := parseMoves(rest, &current); err != nil {
				fail(fmt.Errorf("line %d: %w", line, err))
			}
		}
	}
	finishRecord()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return solves, firstErr
}

func splitPrefix(line string) (prefix, rest string, ok bool) {
	for _, p := range []string{
		solverPrefix, resultPrefix, competitionPrefix, datePrefix,
		crossTypePrefix, scramblePrefix, reconstructionPrefix, movesPrefix,
	} {
		if strings.HasPrefix(line, p) {
			return p, strings.TrimSpace(line[len(p):]), true
		}
	}
	return "", "", false
}

// parseMoves reads the per-segment move counts from a line like
// "cross=6 pair1=7 pair2=9 pair3=6 f2l=28 total=55". Unknown keys fail;
// absent keys stay null.
func parseMoves(rest string, s *domain.Solve) error {
	targets := map[string]**int{
		"cross": &s.MovesCross,
		"pair1": &s.MovesPair1,
		"pair2": &s.MovesPair2,
		"pair3": &s.MovesPair3,
		"f2l":   &s.MovesF2L,
		"total": &s.MovesTotal,
	}
	for _, field := range strings.Fields(rest) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("bad move count %q", field)
		}
		dst, ok := targets[key]
		if !ok {
			return fmt.Errorf("unknown move segment %q", key)
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("bad move count %q", field)
		}
		*dst = &n
	}
	return nil
}

func validateRecord(s *domain.Solve) error {
	switch {
	case s.Solver == "":
		return fmt.Errorf("missing solver")
	case s.Result <= 0:
		return fmt.Errorf("missing or non-positive result")
	case s.Scramble == "":
		return fmt.Errorf("missing scramble")
	case s.Reconstruction == "":
		return fmt.Errorf("missing reconstruction")
	}
	return nil
}
