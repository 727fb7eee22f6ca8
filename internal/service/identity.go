package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/metrics"
	"assetrent-backend/internal/repository"
)

// Identifier is <Prefix>/<Year>/<NNN>[ <Suffix>].
type Identifier struct {
	Prefix string
	Year   int
	Number int
	Suffix string
}

func (id Identifier) String() string {
	s := fmt.Sprintf("%s/%d/%03d", id.Prefix, id.Year, id.Number)
	if id.Suffix != "" {
		s += " " + id.Suffix
	}
	return s
}

// ParseSequence pulls the sequence number out of an identifier: last
// "/"-separated token, first whitespace-separated word, leading digits.
func ParseSequence(identifier string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(identifier), "/")
	words := strings.Fields(parts[len(parts)-1])
	if len(words) == 0 {
		return 0, false
	}
	word := words[0]
	end := 0
	for end < len(word) && word[end] >= '0' && word[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(word[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

type identityAllocator struct {
	prefix  string
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewIdentityAllocator(prefix string, log *logger.Logger, m *metrics.Metrics) IdentityAllocator {
	return &identityAllocator{
		prefix:  prefix,
		log:     log.WithService("identity"),
		metrics: m,
	}
}

func (a *identityAllocator) Compose(year, number int, suffix string) Identifier {
	return Identifier{Prefix: a.prefix, Year: year, Number: number, Suffix: strings.TrimSpace(suffix)}
}

// Allocate scans live and pending identifiers of the year. The scan only
// narrows the choice; the identifier claim at commit is what makes it unique.
func (a *identityAllocator) Allocate(ctx context.Context, tx repository.Tx, year, requested int, suffix string) (Identifier, error) {
	a.log.EnterMethod("identityAllocator.Allocate", "year", year, "requested", requested, "suffix", suffix)

	scope := fmt.Sprintf("%s/%d/", a.prefix, year)
	live, err := tx.Assets().ListIdentifiers(ctx, scope)
	if err != nil {
		a.log.ExitMethodWithError("identityAllocator.Allocate", err, "scope", scope)
		return Identifier{}, fmt.Errorf("list live identifiers: %w", err)
	}
	pending, err := tx.Pending().ListAssetIdentifiers(ctx, scope)
	if err != nil {
		a.log.ExitMethodWithError("identityAllocator.Allocate", err, "scope", scope)
		return Identifier{}, fmt.Errorf("list pending identifiers: %w", err)
	}

	seen := make(map[string]struct{}, len(live)+len(pending))
	used := make(map[int]struct{}, len(live)+len(pending))
	for _, existing := range append(live, pending...) {
		existing = strings.TrimSpace(existing)
		seen[existing] = struct{}{}
		n, ok := ParseSequence(existing)
		if !ok {
			a.log.Warn().Str("identifier", existing).Msg("Skipping unparsable asset identifier")
			continue
		}
		used[n] = struct{}{}
	}

	if requested > 0 {
		candidate := a.Compose(year, requested, suffix)
		if _, taken := seen[candidate.String()]; taken {
			a.metrics.Allocation("requested", "duplicate")
			a.log.Info().Str("identifier", candidate.String()).Msg("Requested asset identifier already in use")
			return Identifier{}, &domain.DuplicateIdentifierError{Identifier: candidate.String()}
		}
		a.metrics.Allocation("requested", "ok")
		a.log.ExitMethod("identityAllocator.Allocate", "identifier", candidate.String())
		return candidate, nil
	}

	number := 1
	for {
		if _, taken := used[number]; !taken {
			break
		}
		number++
	}
	id := a.Compose(year, number, suffix)
	a.metrics.Allocation("auto", "ok")
	a.log.ExitMethod("identityAllocator.Allocate", "identifier", id.String())
	return id, nil
}
