// Package export writes orders and customers as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
)

// ContentType of every export
const ContentType = "text/csv; charset=utf-8"

var (
	OrderHeader    = []string{"Order", "Customer", "Type", "Status", "Priority", "Created At"}
	CustomerHeader = []string{"Code", "Name", "Phone", "Type", "Visits", "Last Visit"}
)

// OrderSource iterates orders matching a filter
type OrderSource interface {
	EachOrder(ctx context.Context, filter repository.OrderFilter, fn func(*domain.Order) error) error
}

// CustomerSource iterates customers matching a filter
type CustomerSource interface {
	EachCustomer(ctx context.Context, filter repository.CustomerFilter, fn func(*domain.Customer) error) error
}

// WriteOrders writes the header and one row per order. It returns the number
// of rows written.
func WriteOrders(ctx context.Context, w io.Writer, src OrderSource, filter repository.OrderFilter) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(OrderHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	n := 0
	err := src.EachOrder(ctx, filter, func(o *domain.Order) error {
		n++
		return cw.Write(OrderRecord(o))
	})
	if err != nil {
		return n, fmt.Errorf("failed to export orders: %w", err)
	}
	cw.Flush()
	return n, cw.Error()
}

// WriteCustomers writes the header and one row per customer
func WriteCustomers(ctx context.Context, w io.Writer, src CustomerSource, filter repository.CustomerFilter) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(CustomerHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	n := 0
	err := src.EachCustomer(ctx, filter, func(c *domain.Customer) error {
		n++
		return cw.Write(CustomerRecord(c))
	})
	if err != nil {
		return n, fmt.Errorf("failed to export customers: %w", err)
	}
	cw.Flush()
	return n, cw.Error()
}

func OrderRecord(o *domain.Order) []string {
	customer := ""
	if o.Customer != nil {
		customer = o.Customer.FullName
	}
	return []string{
		o.OrderNumber,
		customer,
		string(o.Type),
		string(o.Status),
		string(o.Priority),
		o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func CustomerRecord(c *domain.Customer) []string {
	lastVisit := ""
	if c.LastVisit != nil {
		lastVisit = c.LastVisit.UTC().Format(time.RFC3339)
	}
	return []string{
		c.Code,
		c.FullName,
		c.Phone,
		string(c.CustomerType),
		strconv.Itoa(c.TotalVisits),
		lastVisit,
	}
}

// Filename is name-YYYY-MM-DD.csv for the given day
func Filename(name string, day time.Time) string {
	return fmt.Sprintf("%s-%s.csv", name, day.Format(domain.DateLayout))
}
