package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// ClientRuleResolver returns the pricing rule of a client, or nil when it has none.
type ClientRuleResolver interface {
	ResolveForClient(ctx context.Context, clientID snowflake.ID) (*ClientRule, error)
}

// Calculator computes order totals from caller-supplied lines.
type Calculator interface {
	Compute(ctx context.Context, lines []LineItem, shipping ShippingCharge, discount Discount, clientID snowflake.ID) (OrderTotals, error)
}
