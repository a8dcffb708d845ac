package catalog

import "errors"

var (
	// ErrNotReady is returned by Drain while files are still being read or a
	// star scan is still pending.
	ErrNotReady = errors.New("catalog: star catalog not ready for draining")
	// ErrAmbiguous marks a body that could not be matched to a system or star.
	// Such bodies are counted under UnknownLabel.
	ErrAmbiguous = errors.New("catalog: body has no resolvable star")
)
