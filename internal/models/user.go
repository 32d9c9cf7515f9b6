package models

// Роли, выдаваемые внешним провайдером идентификации.
const (
	RoleEmployee = "employee"
	RoleKitchen  = "kitchen"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User активный сотрудник тенанта.
type User struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	ShiftID    *int64 `json:"shift_id,omitempty"`
	Role       string `json:"role"`
	Active     bool   `json:"active"`
}

// Shift рабочая смена с временем начала и конца.
type Shift struct {
	ID        int64  `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DepartmentBreakdown агрегат по отделу.
type DepartmentBreakdown struct {
	Department string  `json:"department"`
	Total      int     `json:"total"`
	Registered int     `json:"registered"`
	Percentage float64 `json:"percentage"`
}

// ShiftBreakdown агрегат по смене.
type ShiftBreakdown struct {
	ShiftID   *int64 `json:"shift_id,omitempty"`
	Name      string `json:"name"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Count     int    `json:"count"`
}

// Breakdown прогноз питания на дату.
type Breakdown struct {
	Date        string                `json:"date"`
	CookingDay  bool                  `json:"cooking_day"`
	Total       int                   `json:"total"`
	Registered  int                   `json:"registered"`
	Departments []DepartmentBreakdown `json:"departments"`
	Shifts      []ShiftBreakdown      `json:"shifts"`
}
