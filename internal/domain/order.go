package domain

import (
	"errors"
	"time"
)

// OrderStatus is the order lifecycle. Orders arrive from the webshop as PAID,
// are promoted to WAITING once their initial priority is computed, and end in
// SCHEDULED or NOT_DELIVERABLE. Terminal orders are never re-scheduled.
type OrderStatus string

const (
	StatusPaid           OrderStatus = "PAID"
	StatusWaiting        OrderStatus = "WAITING"
	StatusScheduled      OrderStatus = "SCHEDULED"
	StatusNotDeliverable OrderStatus = "NOT_DELIVERABLE"
)

var ErrUnknownOrderStatus = errors.New("unknown order status")

// ParseOrderStatus maps a stored name back to an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPaid, StatusWaiting, StatusScheduled, StatusNotDeliverable:
		return OrderStatus(s), nil
	}
	return "", ErrUnknownOrderStatus
}

// Terminal reports whether the status ends the lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == StatusScheduled || s == StatusNotDeliverable
}

// Order is a customer request for one or more products. Identity is assigned
// by storage on creation. Priority starts as the sum of product priorities
// and only grows afterwards (aging) until the order reaches a terminal
// status.
type Order struct {
	ID                int
	Products          []Product
	Status            OrderStatus
	Priority          int
	EstimatedShipping time.Time
	CreatedAt         time.Time
}

// Product is a named good defined by exactly one recipe. The base priority
// contributes to the priority of every order containing the product.
type Product struct {
	ID       int
	Name     string
	Recipe   Recipe
	Priority int
}

// NewOrder builds a freshly paid order. The shipping estimate assumes full
// parallelization across machines, so it is the longest single step over all
// products; scheduling recomputes it against real machine occupation.
func NewOrder(products []Product, now time.Time) *Order {
	o := &Order{
		Products:  products,
		Status:    StatusPaid,
		CreatedAt: now,
	}
	o.Priority = o.InitialPriority()
	o.EstimatedShipping = o.MinimumShippingTime(now)
	return o
}

// InitialPriority is the sum of all product base priorities. Pure.
func (o *Order) InitialPriority() int {
	total := 0
	for _, p := range o.Products {
		total += p.Priority
	}
	return total
}

// MinimumShippingTime is the earliest the order could ship if every step ran
// on an idle machine: now plus the longest single step.
func (o *Order) MinimumShippingTime(now time.Time) time.Time {
	max := 0
	for _, p := range o.Products {
		if d := p.Recipe.MaxStepDuration(); d > max {
			max = d
		}
	}
	return now.Add(time.Duration(max) * time.Second)
}
