package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

// Idle implements Indicator.Idle.
func (n *Noop) Idle() {}

// Open implements Indicator.Open.
func (n *Noop) Open() {}

// Denied implements Indicator.Denied.
func (n *Noop) Denied() {}

// Release implements Indicator.Release.
func (n *Noop) Release() error {
	return nil
}
