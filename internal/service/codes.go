package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefixes of generated identifiers
const (
	CustomerCodePrefix = "CUST"
	OrderNumberPrefix  = "ORD"
)

const maxCodeAttempts = 32

// CodeGenerator returns a candidate suffix for a generated identifier
type CodeGenerator func() string

// RandomHexCode returns 8 upper-case hex characters taken from a random UUID
func RandomHexCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// uniqueCode draws candidates from gen until exists reports an unused one
func uniqueCode(ctx context.Context, prefix string, gen CodeGenerator, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := prefix + gen()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check %s uniqueness: %w", prefix, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: prefix %s", ErrCodeSpaceExhausted, prefix)
}
