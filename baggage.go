package tracedsvc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/baggage"
)

// SetBaggage adds a key-value pair to baggage in the context.
//
// Keys and values must conform to the W3C Baggage specification:
//   - Keys: Must be valid HTTP header tokens (alphanumeric, hyphen, underscore, tilde).
//   - Values: Must be percent-encoded if containing special characters.
//
// Returns an error if key or value violates these constraints.
func SetBaggage(ctx context.Context, key, value string) (context.Context, error) {
	bag := baggage.FromContext(ctx)
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return ctx, fmt.Errorf("create baggage member: %w", err)
	}
	bag, err = bag.SetMember(member)
	if err != nil {
		return ctx, fmt.Errorf("set baggage member: %w", err)
	}

	return baggage.ContextWithBaggage(ctx, bag), nil
}

// AllBaggage returns all baggage members as a map.
func AllBaggage(ctx context.Context) map[string]string {
	bag := baggage.FromContext(ctx)
	result := make(map[string]string, bag.Len())
	for _, m := range bag.Members() {
		result[m.Key()] = m.Value()
	}

	return result
}
