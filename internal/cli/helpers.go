package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bootlace-io/bootlace/internal/engine"
	"github.com/bootlace-io/bootlace/internal/lockguard"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// platformDir is where the platform configuration and its local state live.
func platformDir() string {
	return filepath.Join(".bootlace", "platform")
}

// renderPlan prints the install plan, one line per resource.
func renderPlan(plan *engine.Plan) {
	fmt.Println("\nBootlace will perform the following actions:")
	for _, s := range plan.Steps {
		symbol, color := "+", colorGreen
		switch s.Action {
		case engine.ActionAdopt:
			symbol, color = ">", colorCyan
		case engine.ActionConverge:
			symbol, color = "~", colorYellow
		}
		fmt.Printf("  %s%s %-14s %s%s\n", color, symbol, string(s.Kind), s.Name, colorReset)
	}

	counts := plan.Counts()
	fmt.Println("\nPlan Summary:")
	fmt.Printf("  Create:   %d\n", counts[engine.ActionCreate])
	fmt.Printf("  Import:   %d\n", counts[engine.ActionAdopt])
	fmt.Printf("  Converge: %d\n", counts[engine.ActionConverge])
}

// renderLock formats a lock table status for the operator.
func renderLock(st lockguard.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  locks held: %d\n", st.Count)
	if st.LockID != "" {
		fmt.Fprintf(&b, "  lock id:    %s\n", st.LockID)
	}
	if st.Created != "" {
		fmt.Fprintf(&b, "  created:    %s\n", st.Created)
	}
	if st.Info != "" {
		fmt.Fprintf(&b, "  info:       %s\n", st.Info)
	}
	return b.String()
}

func presence(up bool) string {
	if up {
		return colorGreen + "present" + colorReset
	}
	return colorYellow + "missing" + colorReset
}
