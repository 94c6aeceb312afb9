package csv

import (
	"bufio"
	"io"

	"hermannm.dev/wrap"
)

var DefaultDelimitersToCheck = []rune{',', ';', '\t', '|', ' '}

// DeduceFieldDelimiter samples the first lines of the file and picks the candidate delimiter that
// splits them most consistently. Delimiters inside quoted fields are not counted. Falls back to
// ',' if no candidate appears at all.
func DeduceFieldDelimiter(
	csvFile io.ReadSeeker,
	maxRowsToCheck int,
	delimitersToCheck []rune,
) (delimiter rune, err error) {
	// Resets reader position in file before returning, so its data can be read subsequently
	defer func() {
		if _, seekErr := csvFile.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = wrap.Error(seekErr, "failed to reset CSV reader after deducing field delimiter")
		}
	}()

	if len(delimitersToCheck) == 0 {
		delimitersToCheck = DefaultDelimitersToCheck
	}

	stats := make([]delimiterStats, len(delimitersToCheck))
	for i, candidate := range delimitersToCheck {
		stats[i] = delimiterStats{delimiter: candidate}
	}

	scanner := bufio.NewScanner(csvFile)
	for checked := 0; checked < maxRowsToCheck && scanner.Scan(); {
		line := scanner.Text()
		if line == "" {
			continue
		}

		for i := range stats {
			stats[i].add(countUnquoted(line, stats[i].delimiter))
		}
		checked++
	}
	if err := scanner.Err(); err != nil {
		return 0, wrap.Error(err, "failed to scan CSV file for field delimiter")
	}

	best := delimiterStats{delimiter: ','}
	for _, candidate := range stats {
		if candidate.betterThan(best) {
			best = candidate
		}
	}
	return best.delimiter, nil
}

type delimiterStats struct {
	delimiter rune
	lines     int
	min       int
	max       int
}

func (stats *delimiterStats) add(count int) {
	if stats.lines == 0 || count < stats.min {
		stats.min = count
	}
	if count > stats.max {
		stats.max = count
	}
	stats.lines++
}

func (stats delimiterStats) consistent() bool {
	return stats.max > 0 && stats.min == stats.max
}

func (stats delimiterStats) betterThan(other delimiterStats) bool {
	switch {
	case stats.max == 0:
		return false
	case other.max == 0:
		return true
	case stats.consistent() != other.consistent():
		return stats.consistent()
	case (stats.min > 0) != (other.min > 0):
		// A delimiter present on every sampled line beats one that is missing from some
		return stats.min > 0
	default:
		return stats.max > other.max
	}
}

func countUnquoted(line string, delimiter rune) int {
	count := 0
	quoted := false
	for _, char := range line {
		switch {
		case char == '"':
			quoted = !quoted
		case char == delimiter && !quoted:
			count++
		}
	}
	return count
}
