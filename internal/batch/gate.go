package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoVolumes reports that resolution produced an empty working set.
var ErrNoVolumes = errors.New("found no paths to process; did you set the paths correctly?")

// ErrDeclined reports that the operator rejected the confirmation prompt.
var ErrDeclined = errors.New("run declined by operator")

// Confirm prints the working set one path per line and, unless skipPrompt is
// set, blocks for a single line of operator input. Only y or yes (trimmed,
// case-insensitive) proceeds; any other answer or a closed input declines.
func Confirm(in io.Reader, out io.Writer, volumes []string, skipPrompt bool) error {
	if len(volumes) == 0 {
		return ErrNoVolumes
	}
	fmt.Fprintln(out, "\nPaths to process:")
	fmt.Fprintln(out)
	for _, path := range volumes {
		fmt.Fprintln(out, path)
	}
	if skipPrompt {
		return nil
	}

	fmt.Fprint(out, "\nEach of the paths above will be treated as one volume. Continue? [yes/no]\n")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return ErrDeclined
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return ErrDeclined
	}
}
