package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bootlace-io/bootlace/internal/engine"
	"github.com/bootlace-io/bootlace/internal/lockguard"
)

// interactivePrompts wires the engine's confirmation points to the terminal.
// Only the line terminator is stripped from input; the exact-literal checks
// live in the engine.
func interactivePrompts() engine.Prompts {
	return engine.Prompts{
		ConfirmReuse: func(created string) (bool, error) {
			fmt.Printf("An installation from %s already exists. Resume with its identifiers? (y/n): ", created)
			return readYesNo()
		},
		ConfirmInstall: func(plan *engine.Plan) (string, error) {
			renderPlan(plan)
			fmt.Printf("\nType '%s' to proceed: ", engine.InstallPhrase)
			return readLine()
		},
		ConfirmLockRemoval: func(st lockguard.Status) (bool, error) {
			fmt.Printf("\nAn active state lock was found:\n%s\n", renderLock(st))
			fmt.Print("Remove it and continue? Only do this if no operation is running. (y/n): ")
			return readYesNo()
		},
		ConfirmDestroy: func(planText string) (string, error) {
			fmt.Println(planText)
			fmt.Printf("Type '%s' (exactly) to proceed: ", engine.DestroyPhrase)
			return readLine()
		},
	}
}

// stdin is shared across prompts: a per-prompt reader could buffer past the
// first newline of piped input and swallow later answers in the same run.
var stdin = bufio.NewReader(os.Stdin)

func readLine() (string, error) {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readYesNo() (bool, error) {
	line, err := readLine()
	if err != nil {
		return false, err
	}
	return line == "y" || line == "yes", nil
}
