package calc

// Display is what a two-line calculator screen shows.
type Display struct {
	// Current is the operand being entered or the last result.
	Current string `json:"current"`

	// Previous is "<operand> <operator>" while a binary operation is pending.
	Previous string `json:"previous"`
}

// String renders the display as two lines.
func (d Display) String() string {
	return d.Previous + "\n" + d.Current
}
