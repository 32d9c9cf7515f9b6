// Package models содержит доменные структуры сервиса заказа питания:
// заказы сотрудников, системные настройки, тенанты и платёжные транзакции.
package models

import "time"

// OrderStatus решение сотрудника по питанию на день.
type OrderStatus string

const (
	// StatusEating сотрудник питается (значение по умолчанию).
	StatusEating OrderStatus = "eating"
	// StatusNotEating сотрудник отказался от питания.
	StatusNotEating OrderStatus = "not_eating"
	// StatusCancelled устаревшая метка отказа, встречается в старых отчётах.
	StatusCancelled OrderStatus = "cancelled"
)

// Toggled возвращает противоположный статус. Отказ в любой форме сменяется на eating.
func (s OrderStatus) Toggled() OrderStatus {
	if s.OptedOut() {
		return StatusEating
	}
	return StatusNotEating
}

// OptedOut сообщает, отказался ли сотрудник от питания.
func (s OrderStatus) OptedOut() bool {
	return s == StatusNotEating || s == StatusCancelled
}

// Order решение одного сотрудника на один календарный день.
type Order struct {
	ID        int64       `json:"id"`
	UserID    string      `json:"user_id"`
	Date      string      `json:"date"` // YYYY-MM-DD в бизнес-часовом поясе
	Status    OrderStatus `json:"status"`
	Locked    bool        `json:"locked"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderPage страница истории заказов.
type OrderPage struct {
	Orders   []*Order `json:"orders"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// OrderHistoryQuery параметры запроса истории заказов.
type OrderHistoryQuery struct {
	From     string
	To       string
	Page     int
	PageSize int
}
