package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

type CalculatorParams struct {
	fx.In

	Log   *zap.Logger
	Rules pricingdomain.ClientRuleResolver `optional:"true"`
}

type Calculator struct {
	log   *zap.Logger
	rules pricingdomain.ClientRuleResolver
}

func NewCalculator(p CalculatorParams) pricingdomain.Calculator {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{
		log:   log.Named("pricing.calculator"),
		rules: p.Rules,
	}
}

// Compute derives line, shipping, per-rate tax and grand totals. Computed
// fields on the input are ignored and recomputed. Negative inputs are rejected.
func (c *Calculator) Compute(
	ctx context.Context,
	lines []pricingdomain.LineItem,
	shipping pricingdomain.ShippingCharge,
	discount pricingdomain.Discount,
	clientID snowflake.ID,
) (pricingdomain.OrderTotals, error) {
	if err := validateInput(lines, shipping, discount); err != nil {
		return pricingdomain.OrderTotals{}, err
	}

	rule, err := c.resolveRule(ctx, clientID)
	if err != nil {
		return pricingdomain.OrderTotals{}, err
	}

	clientPercent := decimal.Zero
	taxExempt := false
	if rule != nil {
		if rule.DiscountPercent.IsNegative() || rule.DiscountPercent.GreaterThan(hundred) {
			c.log.Warn("client pricing rule out of range",
				zap.String("client_id", clientID.String()),
				zap.String("discount_percent", rule.DiscountPercent.String()),
			)
			return pricingdomain.OrderTotals{}, fmt.Errorf("%w: client discount must be between 0 and 100", pricingdomain.ErrPricingLookupFailed)
		}
		clientPercent = rule.DiscountPercent
		taxExempt = rule.TaxExempt
	}

	// Exemption changes the applied rate only; stored rates stay as entered.
	effectiveRate := func(rate decimal.Decimal) decimal.Decimal {
		if taxExempt {
			return decimal.Zero
		}
		return rate
	}

	out := pricingdomain.OrderTotals{
		Lines:    make([]pricingdomain.LineItem, len(lines)),
		TotalHT:  decimal.Zero,
		TotalTTC: decimal.Zero,
		Weight:   decimal.Zero,
	}

	for i, line := range lines {
		ht := line.Qty.Mul(line.PuHT)
		ht = pricingdomain.ApplyPercentOff(ht, line.Discount)
		if discount.Kind == pricingdomain.DiscountPercent {
			ht = pricingdomain.ApplyPercentOff(ht, discount.Value)
		}
		ht = pricingdomain.ApplyPercentOff(ht, clientPercent)

		computed := line
		computed.PuHT = pricingdomain.SetPrice(line.PuHT)
		computed.TotalHT = pricingdomain.SetPrice(ht)
		computed.Weight = line.Qty.Mul(line.UnitWeight)
		out.Lines[i] = computed
	}

	if discount.Kind == pricingdomain.DiscountAmount && !discount.IsZero() {
		prorateAmount(out.Lines, pricingdomain.SetPrice(discount.Value))
	}

	var buckets []pricingdomain.TaxBucket
	for i := range out.Lines {
		line := &out.Lines[i]
		rate := effectiveRate(line.TvaTx)
		line.TotalTVA = pricingdomain.SetPrice(pricingdomain.Percent(line.TotalHT, rate))
		line.TotalTTC = line.TotalHT.Add(line.TotalTVA)

		buckets = addToBucket(buckets, rate, line.TotalTVA)
		out.TotalHT = out.TotalHT.Add(line.TotalHT)
		out.Weight = out.Weight.Add(line.Weight)
	}

	ship := shipping
	ship.TotalHT = pricingdomain.SetPrice(shipping.TotalHT)
	shipRate := effectiveRate(ship.TvaTx)
	ship.TotalTVA = pricingdomain.SetPrice(pricingdomain.Percent(ship.TotalHT, shipRate))
	ship.TotalTTC = ship.TotalHT.Add(ship.TotalTVA)
	if !ship.TotalHT.IsZero() {
		buckets = addToBucket(buckets, shipRate, ship.TotalTVA)
		out.TotalHT = out.TotalHT.Add(ship.TotalHT)
	}
	out.Shipping = ship

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].TvaTx.LessThan(buckets[j].TvaTx)
	})
	out.TotalTVA = buckets
	out.TotalHT = pricingdomain.SetPrice(out.TotalHT)
	out.TotalTTC = out.TotalHT.Add(out.TaxTotal())

	return out, nil
}

func (c *Calculator) resolveRule(ctx context.Context, clientID snowflake.ID) (*pricingdomain.ClientRule, error) {
	if c.rules == nil || clientID == 0 {
		return nil, nil
	}
	rule, err := c.rules.ResolveForClient(ctx, clientID)
	if err != nil {
		c.log.Warn("client pricing lookup failed",
			zap.String("client_id", clientID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", pricingdomain.ErrPricingLookupFailed, err)
	}
	return rule, nil
}

func addToBucket(buckets []pricingdomain.TaxBucket, rate, amount decimal.Decimal) []pricingdomain.TaxBucket {
	for i := range buckets {
		if buckets[i].TvaTx.Equal(rate) {
			buckets[i].Total = buckets[i].Total.Add(amount)
			return buckets
		}
	}
	return append(buckets, pricingdomain.TaxBucket{TvaTx: rate, Total: amount})
}

// prorateAmount spreads a fixed discount over lines by their share of the
// pre-tax total. Shares are floored to the cent and the leftover cents go to
// the lines with the largest remainders, so no share exceeds its line.
func prorateAmount(lines []pricingdomain.LineItem, amount decimal.Decimal) {
	total := decimal.Zero
	for _, line := range lines {
		if line.TotalHT.IsPositive() {
			total = total.Add(line.TotalHT)
		}
	}
	if !total.IsPositive() {
		return
	}
	if amount.GreaterThan(total) {
		amount = total
	}

	type portion struct {
		index     int
		share     decimal.Decimal
		remainder decimal.Decimal
	}
	portions := make([]portion, 0, len(lines))
	applied := decimal.Zero
	for i, line := range lines {
		if !line.TotalHT.IsPositive() {
			continue
		}
		exact := amount.Mul(line.TotalHT).DivRound(total, 16)
		share := exact.RoundFloor(2)
		portions = append(portions, portion{index: i, share: share, remainder: exact.Sub(share)})
		applied = applied.Add(share)
	}

	sort.SliceStable(portions, func(i, j int) bool {
		return portions[i].remainder.GreaterThan(portions[j].remainder)
	})
	for i := range portions {
		if !applied.LessThan(amount) {
			break
		}
		p := &portions[i]
		if p.share.Add(cent).GreaterThan(lines[p.index].TotalHT) {
			continue
		}
		p.share = p.share.Add(cent)
		applied = applied.Add(cent)
	}

	for _, p := range portions {
		lines[p.index].TotalHT = lines[p.index].TotalHT.Sub(p.share)
	}
}

func validateInput(lines []pricingdomain.LineItem, shipping pricingdomain.ShippingCharge, discount pricingdomain.Discount) error {
	if err := discount.Validate(); err != nil {
		return err
	}
	for i, line := range lines {
		switch {
		case line.Qty.IsNegative():
			return fmt.Errorf("%w: lines[%d].qty must not be negative", pricingdomain.ErrInvalidInput, i)
		case line.PuHT.IsNegative():
			return fmt.Errorf("%w: lines[%d].pu_ht must not be negative", pricingdomain.ErrInvalidInput, i)
		case line.TvaTx.IsNegative():
			return fmt.Errorf("%w: lines[%d].tva_tx must not be negative", pricingdomain.ErrInvalidInput, i)
		case line.UnitWeight.IsNegative():
			return fmt.Errorf("%w: lines[%d].unit_weight must not be negative", pricingdomain.ErrInvalidInput, i)
		case line.Discount.IsNegative() || line.Discount.GreaterThan(hundred):
			return fmt.Errorf("%w: lines[%d].discount must be between 0 and 100", pricingdomain.ErrInvalidInput, i)
		}
	}
	if shipping.TotalHT.IsNegative() {
		return fmt.Errorf("%w: shipping.total_ht must not be negative", pricingdomain.ErrInvalidInput)
	}
	if shipping.TvaTx.IsNegative() {
		return fmt.Errorf("%w: shipping.tva_tx must not be negative", pricingdomain.ErrInvalidInput)
	}
	return nil
}
