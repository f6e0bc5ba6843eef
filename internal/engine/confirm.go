package engine

// Confirmation literals. Both comparisons are exact: no trimming, no case
// folding. Destructive confirmation typos are a known failure mode, so the
// gate accepts nothing but the literal itself.
const (
	// DestroyPhrase gates the destructive flows.
	DestroyPhrase = "DESTROY"
	// InstallPhrase gates initial provisioning.
	InstallPhrase = "yes"
)

// ConfirmedDestroy reports whether input passes the destructive gate.
func ConfirmedDestroy(input string) bool {
	return input == DestroyPhrase
}

// ConfirmedInstall reports whether input passes the provisioning gate.
func ConfirmedInstall(input string) bool {
	return input == InstallPhrase
}
