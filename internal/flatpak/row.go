package flatpak

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

const (
	// columnSeparator separates the requested columns on every output line.
	columnSeparator = "\t"
	// columnCount is the number of columns requested from flatpak search.
	columnCount = 2
	// noMatchesLine is printed by flatpak search instead of rows when nothing matches.
	noMatchesLine = "No matches found"
)

// ErrMalformedRow is returned when an output line does not hold exactly two columns.
var ErrMalformedRow = errors.New("malformed search row")

// Row is one line of flatpak search output.
type Row struct {
	// Application is the application or runtime identifier.
	Application string
	// Branch is the branch (version) of the ref.
	Branch string
}

// ParseRows splits search output into rows. Blank lines are skipped.
func ParseRows(output string) ([]Row, error) {
	var (
		rows    []Row
		lineNo  int
		scanner = bufio.NewScanner(strings.NewReader(output))
	)

	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if strings.TrimSpace(line) == "" || line == noMatchesLine {
			continue
		}

		fields := strings.Split(line, columnSeparator)
		if len(fields) != columnCount {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, ErrMalformedRow)
		}

		rows = append(rows, Row{
			Application: fields[0],
			Branch:      fields[1],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read search output: %w", err)
	}

	return rows, nil
}

// BranchesOf returns the branches of rows whose application equals id, in output order.
func BranchesOf(rows []Row, id string) []string {
	var branches []string

	for _, row := range rows {
		if row.Application == id {
			branches = append(branches, row.Branch)
		}
	}

	return branches
}
