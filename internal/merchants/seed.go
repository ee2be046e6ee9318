package merchants

import (
	_ "embed"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/store"
)

//go:embed merchants.yaml
var embeddedSeeds []byte

// MerchantSeed is one configured merchant with its raw label strings.
type MerchantSeed struct {
	Name       string   `yaml:"name"`
	Icon       string   `yaml:"icon"`
	CategoryID string   `yaml:"category_id"`
	Labels     []string `yaml:"labels"`
}

type seedFile struct {
	Merchants []MerchantSeed `yaml:"merchants"`
}

// ParseSeeds decodes a YAML merchant seed table.
func ParseSeeds(raw []byte) ([]MerchantSeed, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse merchant seeds: %w", err)
	}
	return f.Merchants, nil
}

// EmbeddedSeeds returns the merchant table compiled into the binary.
func EmbeddedSeeds() ([]MerchantSeed, error) {
	return ParseSeeds(embeddedSeeds)
}

// Seed writes merchants and their labels to the store. Every label
// (including the merchant name itself) is normalized before storage;
// duplicate normalized labels within one merchant are suppressed, and labels
// already present globally are left untouched because each label maps to
// exactly one merchant.
func Seed(ctx context.Context, merchants store.MerchantStore, seeds []MerchantSeed) error {
	existingLabels, err := merchants.Labels(ctx)
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(existingLabels))
	for _, l := range existingLabels {
		taken[l.Label] = true
	}

	existingMerchants, err := merchants.Merchants(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]domain.Merchant, len(existingMerchants))
	for _, m := range existingMerchants {
		byName[m.Name] = m
	}

	for _, seed := range seeds {
		if seed.Name == "" {
			return fmt.Errorf("merchant seed with empty name")
		}

		merchant, ok := byName[seed.Name]
		if !ok {
			merchant = domain.Merchant{ID: uuid.New().String(), Name: seed.Name}
		}
		merchant.Icon = seed.Icon
		merchant.DefaultCategoryID = seed.CategoryID
		if err := merchants.SaveMerchant(ctx, merchant); err != nil {
			return fmt.Errorf("failed to save merchant %s: %w", seed.Name, err)
		}

		seen := make(map[string]bool)
		for _, raw := range append([]string{seed.Name}, seed.Labels...) {
			label := normalize.Merchant(raw)
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			if taken[label] {
				log.Printf("WARN: label %q already mapped, skipping for merchant %s", label, seed.Name)
				continue
			}
			if err := merchants.SaveLabel(ctx, domain.MerchantLabel{
				ID:         uuid.New().String(),
				MerchantID: merchant.ID,
				Label:      label,
			}); err != nil {
				return fmt.Errorf("failed to save label %q for merchant %s: %w", label, seed.Name, err)
			}
			taken[label] = true
		}
	}
	return nil
}
