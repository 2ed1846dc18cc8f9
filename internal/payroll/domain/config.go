package domain

// DefaultBatchSize bounds line-item writes per transaction when the caller
// does not specify one.
const DefaultBatchSize = 100

// ImportConfig carries the parameters of one import run.
type ImportConfig struct {
	Groups               []DataGroup
	Mode                 ImportMode
	Period               PayPeriod
	BatchSize            int
	ValidateBeforeImport bool
}

// EffectiveBatchSize returns the configured batch size or the default.
func (c ImportConfig) EffectiveBatchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

// Validate checks the run parameters before anything is parsed.
func (c ImportConfig) Validate() error {
	if len(c.Groups) == 0 {
		return ErrNoDataGroups
	}
	for _, g := range c.Groups {
		if !g.Valid() {
			return ErrUnknownDataGroup
		}
	}
	if !c.Mode.Valid() {
		return ErrUnknownImportMode
	}
	if c.Period.ID == "" {
		return ErrMissingPeriod
	}
	return nil
}
