package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// promptForURL asks for a start URL on out and reads one line from in,
// the interactive fallback spec.md §6 allows in place of --url. Grounded
// on the reference crawler's fmt.Scanln prompt, upgraded to a bufio.Scanner
// so a URL with surrounding whitespace or a long query string still reads
// correctly in one line instead of breaking on the first space.
func promptForURL(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, "Enter the starting URL to crawl:")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no input read")
	}

	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return "", fmt.Errorf("empty URL")
	}
	return line, nil
}
