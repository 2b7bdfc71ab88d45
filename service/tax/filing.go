package tax

// FilingStatus is a US filing status. It is validated and echoed but does
// not change the flat-rate estimate.
type FilingStatus string

const (
	Single                  FilingStatus = "single"
	MarriedFilingJointly    FilingStatus = "mfj"
	MarriedFilingSeparately FilingStatus = "mfs"
	HeadOfHousehold         FilingStatus = "hoh"
)

// FilingStatusOption pairs a status with its display label.
type FilingStatusOption struct {
	Value FilingStatus `json:"value"`
	Label string       `json:"label"`
}

var filingStatusOptions = []FilingStatusOption{
	{Value: Single, Label: "Single"},
	{Value: MarriedFilingJointly, Label: "Married Filing Jointly"},
	{Value: MarriedFilingSeparately, Label: "Married Filing Separately"},
	{Value: HeadOfHousehold, Label: "Head of Household"},
}

// FilingStatuses lists the accepted statuses in display order.
func FilingStatuses() []FilingStatusOption {
	out := make([]FilingStatusOption, len(filingStatusOptions))
	copy(out, filingStatusOptions)
	return out
}

// Valid reports whether s is one of the accepted statuses.
func (s FilingStatus) Valid() bool {
	for _, o := range filingStatusOptions {
		if o.Value == s {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value when unknown.
func (s FilingStatus) Label() string {
	for _, o := range filingStatusOptions {
		if o.Value == s {
			return o.Label
		}
	}
	return string(s)
}
