package enums

// StockAdjustmentType selects how an administrative stock change is applied.
type StockAdjustmentType string

const (
	StockAdjustmentAdd      StockAdjustmentType = "add"
	StockAdjustmentSubtract StockAdjustmentType = "subtract"
	StockAdjustmentSet      StockAdjustmentType = "set"
)

func (t StockAdjustmentType) IsValid() bool {
	switch t {
	case StockAdjustmentAdd, StockAdjustmentSubtract, StockAdjustmentSet:
		return true
	default:
		return false
	}
}
