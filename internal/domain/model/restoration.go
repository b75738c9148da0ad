package model

import "time"

// RestorationMode selects how the restored photograph is colorized.
type RestorationMode string

const (
	ModeAutomatic     RestorationMode = "automatic"
	ModeBlackAndWhite RestorationMode = "black_and_white"
	ModeSepia         RestorationMode = "sepia"
	ModeRepairOnly    RestorationMode = "repair_only"
	ModeVibrant       RestorationMode = "vibrant"
	ModeNatural       RestorationMode = "natural"
)

// ParseRestorationMode maps a wire string to a mode, defaulting to automatic.
func ParseRestorationMode(s string) RestorationMode {
	switch RestorationMode(s) {
	case ModeBlackAndWhite, ModeSepia, ModeRepairOnly, ModeVibrant, ModeNatural:
		return RestorationMode(s)
	default:
		return ModeAutomatic
	}
}

// CreditSource says which ledger a restoration was paid from.
type CreditSource string

const (
	SourceCode CreditSource = "code"
	SourceFree CreditSource = "free"
)

// Restoration is the record of one restoration attempt. Credit is consumed
// before the upstream call and not returned on failure.
type Restoration struct {
	ID               string // ULID, sortable by creation time
	Source           CreditSource
	Code             string // set when Source == SourceCode
	AccountID        string // set when Source == SourceFree
	Mode             RestorationMode
	Watermark        bool
	CreditsRemaining int
	StartedAt        time.Time
}

// RestorationResult is the collaborator's output: the restored image plus the
// model's descriptive text.
type RestorationResult struct {
	ImageBytes      []byte
	MimeType        string
	DescriptiveText string
}
