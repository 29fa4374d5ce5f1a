package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// stdin is shared across prompts so buffered input is not lost between
// consecutive reads.
var stdin = bufio.NewReader(os.Stdin)

// confirm asks a yes/no question on the terminal and reports the answer.
// Anything other than an explicit yes counts as no.
func confirm(message string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", message)
	line, ok := readLine()
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// promptLine asks for a single line of input. The second return value is
// false when the user submits nothing or input is closed.
func promptLine(message string) (string, bool) {
	fmt.Fprintf(os.Stderr, "%s: ", message)
	line, ok := readLine()
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(line)
	return trimmed, trimmed != ""
}

// promptSecret reads a value without echoing it when stdin is a terminal.
func promptSecret(message string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", message)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, ok := readLine()
	if !ok {
		return "", fmt.Errorf("failed to read secret: input closed")
	}
	return strings.TrimSpace(line), nil
}

func readLine() (string, bool) {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}
