package models

// Expense categories.
const (
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryBill           = "Bill"
	CategoryEntertainment  = "Entertainment"
	CategoryHealth         = "Health"
	CategoryOther          = "Other"
)

// Income categories.
const (
	CategorySalary           = "Salary"
	CategoryAdditionalIncome = "Additional Income"
	CategoryGift             = "Gift"
)

var ExpenseCategories = []string{
	CategoryFood, CategoryTransportation, CategoryBill,
	CategoryEntertainment, CategoryHealth, CategoryOther,
}

var IncomeCategories = []string{
	CategorySalary, CategoryAdditionalIncome, CategoryGift, CategoryOther,
}

// Categories returns the enumeration for kind.
func Categories(kind RecordKind) []string {
	switch kind {
	case KindIncome:
		return IncomeCategories
	case KindExpense:
		return ExpenseCategories
	default:
		return nil
	}
}

// ValidCategory reports whether category belongs to kind's enumeration.
func ValidCategory(kind RecordKind, category string) bool {
	for _, c := range Categories(kind) {
		if c == category {
			return true
		}
	}
	return false
}

// ExpenseType tags an expense as one-off or recurring.
type ExpenseType string

const (
	ExpenseOneTime ExpenseType = "One Time"
	ExpenseMonthly ExpenseType = "Monthly"
)

func (t ExpenseType) Valid() bool {
	return t == ExpenseOneTime || t == ExpenseMonthly
}
