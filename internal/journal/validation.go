package journal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"trade-grid-lab/internal/domain"
)

var (
	// ErrInvalidTrade is returned when a trade submission fails validation.
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrInvalidMarket is returned for a blank market name.
	ErrInvalidMarket = errors.New("invalid market")

	// ErrUnknownMarket is returned when a trade names a market that is not registered.
	ErrUnknownMarket = errors.New("unknown market")
)

// ValidationError describes which field of a trade submission was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidTrade, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidTrade.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTrade
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Form field names accepted by ParseTradeForm.
const (
	FieldName             = "name"
	FieldMarket           = "market"
	FieldExit             = "exit"
	FieldStopLoss         = "stop_loss"
	FieldMostAdverse      = "most_adverse"
	FieldUnrealizedProfit = "unrealized_profit"
)

// ParseTradeForm converts raw form values into a TradeInput.
// Every numeric field must be a base-10 integer.
func ParseTradeForm(form map[string]string) (domain.TradeInput, error) {
	in := domain.TradeInput{
		Name:   strings.TrimSpace(form[FieldName]),
		Market: strings.TrimSpace(form[FieldMarket]),
	}

	fields := []struct {
		name string
		dst  *int
	}{
		{FieldExit, &in.Exit},
		{FieldStopLoss, &in.StopLoss},
		{FieldMostAdverse, &in.MostAdverse},
		{FieldUnrealizedProfit, &in.UnrealizedProfit},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(form[f.name])
		if raw == "" {
			return domain.TradeInput{}, invalid(f.name, "is required")
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.TradeInput{}, invalid(f.name, "must be an integer")
		}
		*f.dst = v
	}

	return in, nil
}

// ValidateTradeInput checks the sign rules of a trade:
// exit >= 0, stop_loss < 0, most_adverse <= 0, unrealized_profit >= 0.
func ValidateTradeInput(in domain.TradeInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid(FieldName, "is required")
	case strings.TrimSpace(in.Market) == "":
		return invalid(FieldMarket, "is required")
	case in.Exit < 0:
		return invalid(FieldExit, "must be >= 0")
	case in.StopLoss >= 0:
		return invalid(FieldStopLoss, "must be < 0")
	case in.MostAdverse > 0:
		return invalid(FieldMostAdverse, "must be <= 0")
	case in.UnrealizedProfit < 0:
		return invalid(FieldUnrealizedProfit, "must be >= 0")
	}
	return nil
}

// failureReason returns the metric label for a validation error.
func failureReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return "unknown"
}
