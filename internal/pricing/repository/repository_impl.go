package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	"github.com/smallbiznis/offerdesk/pkg/repository"
	"gorm.io/gorm"
)

type ruleRepository struct {
	store repository.Repository[pricingdomain.ClientRule]
}

// NewClientRuleRepository resolves client pricing rules from client_pricing_rules.
func NewClientRuleRepository(db *gorm.DB) pricingdomain.ClientRuleResolver {
	return &ruleRepository{store: repository.ProvideStore[pricingdomain.ClientRule](db)}
}

func (r *ruleRepository) ResolveForClient(ctx context.Context, clientID snowflake.ID) (*pricingdomain.ClientRule, error) {
	return r.store.FindOne(ctx, &pricingdomain.ClientRule{ClientID: clientID})
}
