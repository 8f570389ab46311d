package payroll

// Line is one employee of the monthly report.
type Line struct {
	EmployeeID           string `json:"employeeId"`
	Name                 string `json:"name"`
	Position             string `json:"position"`
	WorkedDays           int    `json:"workedDays"`
	TotalHours           string `json:"totalHours"`
	GrossSalaryInCents   int64  `json:"grossSalaryInCents"`
	BonusInCents         int64  `json:"bonusInCents"`
	DeductionInCents     int64  `json:"deductionInCents"`
	NetSalaryInCents     int64  `json:"netSalaryInCents"`
	FormattedGrossSalary string `json:"formattedGrossSalary"`
	FormattedNetSalary   string `json:"formattedNetSalary"`
}

type Report struct {
	Month               int    `json:"month"`
	Year                int    `json:"year"`
	Period              string `json:"period"`
	Employees           []Line `json:"employees"`
	TotalGrossInCents   int64  `json:"totalGrossInCents"`
	TotalNetInCents     int64  `json:"totalNetInCents"`
	FormattedTotalGross string `json:"formattedTotalGross"`
	FormattedTotalNet   string `json:"formattedTotalNet"`
}
