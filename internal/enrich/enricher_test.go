package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"job-pipeline-go/internal/models"
)

type fakeLookup struct {
	domains  map[string]string
	contacts map[string][]models.Contact
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeLookup) FindDomain(_ context.Context, company string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if company == "Broken" {
		return "", errors.New("lookup service unavailable")
	}
	return f.domains[company], nil
}

func (f *fakeLookup) FindContacts(_ context.Context, domain string) ([]models.Contact, error) {
	return f.contacts[domain], nil
}

type fakeStore struct {
	mu        sync.Mutex
	companies []string
	saved     []models.Contact
	failFor   string
}

func (s *fakeStore) Companies(context.Context) ([]string, error) {
	return s.companies, nil
}

func (s *fakeStore) SaveContacts(_ context.Context, contacts []models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(contacts) > 0 && contacts[0].DomainName == s.failFor {
		return errors.New("insert rejected")
	}
	s.saved = append(s.saved, contacts...)
	return nil
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		domains: map[string]string{
			"Acme":    "acme.example",
			"Globex":  "globex.example",
			"Initech": "initech.example",
			"Quiet":   "quiet.example",
		},
		contacts: map[string][]models.Contact{
			"acme.example": {
				{EmailAddress: "ada@acme.example", DomainName: "acme.example"},
				{EmailAddress: "bob@acme.example", DomainName: "acme.example"},
			},
			"globex.example":  {{EmailAddress: "hank@globex.example", DomainName: "globex.example"}},
			"initech.example": {{EmailAddress: "peter@initech.example", DomainName: "initech.example"}},
		},
	}
}

func TestProcessCompanies(t *testing.T) {
	lookup := newFakeLookup()
	store := &fakeStore{failFor: "initech.example"}
	enricher := NewEnricher(lookup, store, Options{Concurrency: 2, RequestsPerMin: 600})

	report, err := enricher.ProcessCompanies(context.Background(),
		[]string{"Acme", "Globex", "Acme", " ", "Unknown", "Quiet", "Broken", "Initech"})
	require.NoError(t, err)

	require.Equal(t, 2, report.Processed)
	require.Equal(t, 3, report.ContactsFound)
	require.Len(t, store.saved, 3)
	require.Len(t, report.Errors, 4)
	require.ElementsMatch(t, []string{
		`no domain found for company "Unknown"`,
		`no contacts found for domain "quiet.example"`,
		`company "Broken": lookup service unavailable`,
		`save contacts for "initech.example": insert rejected`,
	}, report.Errors)
	require.LessOrEqual(t, lookup.peak.Load(), int32(2))
}

func TestProcessCompaniesDefaultsToStoredCompanies(t *testing.T) {
	store := &fakeStore{companies: []string{"Acme", "Globex"}}
	enricher := NewEnricher(newFakeLookup(), store, Options{RequestsPerMin: 600})

	report, err := enricher.ProcessCompanies(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, report.Processed)
	require.Equal(t, 3, report.ContactsFound)
	require.Empty(t, report.Errors)
}

func TestProcessCompaniesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enricher := NewEnricher(newFakeLookup(), &fakeStore{}, Options{RequestsPerMin: 600})
	report, err := enricher.ProcessCompanies(ctx, []string{"Acme", "Globex"})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Processed)
}

func TestDistinct(t *testing.T) {
	require.Equal(t, []string{"Acme", "Globex"}, distinct([]string{" Acme", "", "Globex", "Acme "}))
}

func TestRateLimiterBurstThenWaits(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx, "contacts", 3))
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	require.Error(t, rl.Wait(short, "contacts", 3))

	require.NoError(t, rl.Wait(ctx, "other", 3))
}

func TestRateLimiterRetunes(t *testing.T) {
	rl := NewRateLimiter()
	require.Equal(t, 2, rl.getLimiter("contacts", 2).Burst())
	require.Equal(t, 5, rl.getLimiter("contacts", 5).Burst())
}
