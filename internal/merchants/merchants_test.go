package merchants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTwoMerchants(t *testing.T, s *sqlite.Store) (uber, uberEats domain.Merchant) {
	t.Helper()
	ctx := context.Background()

	uber = domain.Merchant{ID: "m-uber", Name: "Uber"}
	uberEats = domain.Merchant{ID: "m-uber-eats", Name: "Uber Eats"}
	require.NoError(t, s.SaveMerchant(ctx, uber))
	require.NoError(t, s.SaveMerchant(ctx, uberEats))
	require.NoError(t, s.SaveLabel(ctx, domain.MerchantLabel{ID: "l-1", MerchantID: "m-uber", Label: "uber"}))
	require.NoError(t, s.SaveLabel(ctx, domain.MerchantLabel{ID: "l-2", MerchantID: "m-uber-eats", Label: "uber eats"}))
	return uber, uberEats
}

func TestExecute_LongestLabelWins(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	seedTwoMerchants(t, s)

	tx := domain.NewTransaction("user-1", 150.0, "UBER EATS PEDIDO 4412", time.Now().UTC().AddDate(0, 0, -3))
	require.NoError(t, s.SaveTransactions(ctx, []domain.Transaction{tx}))

	matches, err := NewIdentifier(s, s).Execute(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, matches)

	got, err := s.TransactionsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "m-uber-eats", got[0].MerchantID,
		"longer label must be tried before the shorter generic one")
	require.Equal(t, "Uber Eats", got[0].MerchantName)
}

func TestExecute_WordBoundaryMatching(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	seedTwoMerchants(t, s)

	// "uberrima" contains "uber" but not as a whole word.
	tx := domain.NewTransaction("user-1", 80.0, "LIBRERIA UBERRIMA", time.Now().UTC().AddDate(0, 0, -2))
	require.NoError(t, s.SaveTransactions(ctx, []domain.Transaction{tx}))

	matches, err := NewIdentifier(s, s).Execute(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, matches)
}

func TestExecute_SkipsLinkedAndOldTransactions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	seedTwoMerchants(t, s)
	now := time.Now().UTC()

	linked := domain.NewTransaction("user-1", 100.0, "UBER TRIP", now.AddDate(0, 0, -1))
	linked.MerchantID = "m-existing"
	linked.MerchantName = "Existing"
	old := domain.NewTransaction("user-1", 100.0, "UBER TRIP", now.AddDate(0, -6, 0))
	require.NoError(t, s.SaveTransactions(ctx, []domain.Transaction{linked, old}))

	matches, err := NewIdentifier(s, s).Execute(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, matches)

	got, err := s.TransactionsByUser(ctx, "user-1")
	require.NoError(t, err)
	for _, tx := range got {
		if tx.ID == linked.ID {
			require.Equal(t, "m-existing", tx.MerchantID, "already-linked transactions stay untouched")
		}
	}
}

func TestExecute_NoLabelsIsNoop(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tx := domain.NewTransaction("user-1", 100.0, "UBER TRIP", time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, s.SaveTransactions(ctx, []domain.Transaction{tx}))

	matches, err := NewIdentifier(s, s).Execute(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, matches)
}

func TestExecute_MatchesNormalizedDescription(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	netflix := domain.Merchant{ID: "m-netflix", Name: "Netflix"}
	require.NoError(t, s.SaveMerchant(ctx, netflix))
	require.NoError(t, s.SaveLabel(ctx, domain.MerchantLabel{ID: "l-n", MerchantID: "m-netflix", Label: "netflix com"}))

	// Separators and masked numbers disappear under normalization, so the
	// label still matches.
	tx := domain.NewTransaction("user-1", 199.0, "NETFLIX.COM *4821", time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, s.SaveTransactions(ctx, []domain.Transaction{tx}))

	matches, err := NewIdentifier(s, s).Execute(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, matches)
}

func TestSeed_NormalizesAndDeduplicates(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	seeds := []MerchantSeed{
		{
			Name:       "Netflix",
			Icon:       "tv",
			CategoryID: "entretenimiento",
			// Both raw labels normalize to "netflix com"; only one survives.
			Labels: []string{"NETFLIX.COM", "netflix-com *1234"},
		},
	}
	require.NoError(t, Seed(ctx, s, seeds))

	labels, err := s.Labels(ctx)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	got := make(map[string]bool)
	for _, l := range labels {
		got[l.Label] = true
	}
	require.True(t, got["netflix"], "the merchant name itself is seeded as a label")
	require.True(t, got["netflix com"])
}

func TestSeed_IdempotentAcrossRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	seeds, err := EmbeddedSeeds()
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	require.NoError(t, Seed(ctx, s, seeds))
	firstMerchants, err := s.Merchants(ctx)
	require.NoError(t, err)
	firstLabels, err := s.Labels(ctx)
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, s, seeds))
	secondMerchants, err := s.Merchants(ctx)
	require.NoError(t, err)
	secondLabels, err := s.Labels(ctx)
	require.NoError(t, err)

	require.Len(t, secondMerchants, len(firstMerchants))
	require.Len(t, secondLabels, len(firstLabels))
}
