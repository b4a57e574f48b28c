package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"gopkg.in/yaml.v3"
)

type fixtureFile struct {
	References []fixtureReference `yaml:"references"`
}

type fixtureReference struct {
	Status        string           `yaml:"status"`
	Amount        string           `yaml:"amount"`
	UnitValue     string           `yaml:"unit_value"`
	EstimatedDate string           `yaml:"estimated_date,omitempty"`
	CreatedAt     string           `yaml:"created_at"`
	Customer      *fixtureCustomer `yaml:"customer,omitempty"`
	ServiceType   string           `yaml:"service_type,omitempty"`
}

type fixtureCustomer struct {
	Name            string `yaml:"name"`
	ClosingStartDay string `yaml:"closing_start_day,omitempty"`
	ClosingEndDay   string `yaml:"closing_end_day,omitempty"`
}

func loadFixture(path string, loc *time.Location) ([]closingperiod.Reference, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return parseFixture(raw, loc)
}

func parseFixture(raw []byte, loc *time.Location) ([]closingperiod.Reference, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	refs := make([]closingperiod.Reference, 0, len(file.References))
	for i, item := range file.References {
		ref, err := item.toReference(loc)
		if err != nil {
			return nil, fmt.Errorf("reference %d: %w", i, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (f fixtureReference) toReference(loc *time.Location) (closingperiod.Reference, error) {
	amount, err := parseDecimal(f.Amount)
	if err != nil {
		return closingperiod.Reference{}, fmt.Errorf("amount: %w", err)
	}
	unitValue, err := parseDecimal(f.UnitValue)
	if err != nil {
		return closingperiod.Reference{}, fmt.Errorf("unit_value: %w", err)
	}
	createdAt, err := parseTimestamp(f.CreatedAt, loc)
	if err != nil {
		return closingperiod.Reference{}, fmt.Errorf("created_at: %w", err)
	}

	ref := closingperiod.Reference{
		Status:    strings.TrimSpace(f.Status),
		Amount:    amount,
		UnitValue: unitValue,
		CreatedAt: createdAt,
	}
	if date := strings.TrimSpace(f.EstimatedDate); date != "" {
		estimated, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			return closingperiod.Reference{}, fmt.Errorf("estimated_date: %w", err)
		}
		ref.EstimatedCompletionDate = estimated
	}
	if f.Customer != nil {
		ref.Customer = &closingperiod.Customer{
			Name:            f.Customer.Name,
			ClosingStartDay: f.Customer.ClosingStartDay,
			ClosingEndDay:   f.Customer.ClosingEndDay,
		}
	}
	if name := strings.TrimSpace(f.ServiceType); name != "" {
		ref.ServiceType = &closingperiod.ServiceType{Name: name}
	}
	return ref, nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// parseTimestamp accepts RFC 3339 or a bare date, read as midnight in loc.
func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, raw, loc)
}
