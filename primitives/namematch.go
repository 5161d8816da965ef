package primitives

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// OnlinePlayerProvider supplies the set of currently connected players for
// the online-scan step of MatchNameToID (spec §4.13 item 2). It is
// optional: a DatabasePrims with no provider set simply skips the
// online-scan step and relies on the exact-match database lookup alone.
type OnlinePlayerProvider interface {
	OnlinePlayers() []dbid.Id
}

// SetOnlinePlayerProvider wires the online-scan source used by
// MatchNameToID for player searches. Passing nil disables the step.
func (p *DatabasePrims) SetOnlinePlayerProvider(provider OnlinePlayerProvider) {
	p.online = provider
}

// removeAccents folds word to its unaccented form, e.g. "café" -> "cafe".
// Grounded on the teacher's stringUtils.RemoveAccents transform chain.
func removeAccents(word string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	s, _, err := transform.String(t, word)
	if err != nil {
		return "", err
	}

	return s, nil
}

// normalizeForMatch lower-cases and accent-folds s for case- and
// accent-insensitive name comparisons.
func normalizeForMatch(s string) string {
	folded, err := removeAccents(s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(folded)
}

// matchQuality compares candidate against the already-normalized target,
// reporting an exact match, or (when exactOnly is false) a substring
// partial match.
func matchQuality(target string, exactOnly bool, candidate string) (exact, partial bool) {
	normalized := normalizeForMatch(candidate)

	exact = normalized == target
	if exact || exactOnly {
		return exact, false
	}

	return false, strings.Contains(normalized, target)
}

// ConvertStringToID parses s as a serialized Id; see dbid.Parse for the
// accepted formats. defaultSite fills in the site component for the
// shorthand "#<entity>" form.
func (p *DatabasePrims) ConvertStringToID(s string, defaultSite uint32) (dbid.Id, error) {
	return dbid.Parse(s, defaultSite)
}

// ConvertIDToName renders id as a string for display: its name if it
// resolves to a live entity, otherwise its serialized form.
func (p *DatabasePrims) ConvertIDToName(ctx context.Context, id dbid.Id) (string, error) {
	name, err := p.entityName(ctx, id)
	if err != nil {
		return id.String(), nil
	}

	return name, nil
}

func (p *DatabasePrims) entityName(ctx context.Context, id dbid.Id) (string, error) {
	var name string

	err := p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		n, err := e.Name(tok)
		if err != nil {
			return err
		}

		name = n

		return nil
	})

	return name, err
}

// MatchNameToID implements the name-matching pipeline (spec §4.13):
// special tokens, player search, or an environment walk for actions and
// general entities.
func (p *DatabasePrims) MatchNameToID(ctx context.Context, site uint32, requester dbid.Id, search string, exact bool, typeFilter dbtype.EntityType) (dbid.Id, error) {
	switch search {
	case "me":
		return requester, nil
	case "here":
		return p.GetEntityLocation(ctx, requester)
	}

	if typeFilter == dbtype.TypePlayer {
		return p.matchPlayerName(ctx, site, search)
	}

	return p.matchEnvironment(ctx, site, requester, search, exact, typeFilter)
}

// matchPlayerName implements spec §4.13 item 2: exact database match
// first, then an online-scan fallback for a unique partial or exact
// match among connected players.
func (p *DatabasePrims) matchPlayerName(ctx context.Context, site uint32, search string) (dbid.Id, error) {
	ids, err := p.access.Find(ctx, site, dbtype.TypePlayer, search, true)
	if err != nil {
		return dbid.Id{}, err
	}

	if len(ids) == 1 {
		return ids[0], nil
	}

	if p.online != nil {
		if id, ok := p.matchOnlinePlayer(ctx, search); ok {
			return id, nil
		}
	}

	return dbid.Id{}, dberrors.NotFound("no player matches %q", search)
}

func (p *DatabasePrims) matchOnlinePlayer(ctx context.Context, search string) (dbid.Id, bool) {
	target := normalizeForMatch(search)

	var (
		best      dbid.Id
		bestExact bool
		found     bool
		ambiguous bool
	)

	for _, id := range p.online.OnlinePlayers() {
		name, err := p.entityName(ctx, id)
		if err != nil {
			continue
		}

		isExact, isPartial := matchQuality(target, false, name)
		if !isExact && !isPartial {
			continue
		}

		switch {
		case !found:
			best, bestExact, found = id, isExact, true
		case isExact == bestExact:
			ambiguous = true
		case isExact && !bestExact:
			best, bestExact, ambiguous = id, true, false
		}
	}

	if !found || ambiguous {
		return dbid.Id{}, false
	}

	return best, true
}

// environmentScopes returns, in walk order, requester itself (standing in
// for "requester's inventory", whose contents are requester's held
// items), then requester's current room, then the chain of enclosing
// regions up to the root (spec §4.13 item 3).
func (p *DatabasePrims) environmentScopes(ctx context.Context, requester dbid.Id) ([]dbid.Id, error) {
	scopes := []dbid.Id{requester}

	current, err := p.GetEntityLocation(ctx, requester)
	if err != nil {
		return nil, err
	}

	for !current.IsDefault() {
		scopes = append(scopes, current)

		parent, err := p.GetEntityLocation(ctx, current)
		if err != nil || parent.Equal(current) {
			break
		}

		current = parent
	}

	return scopes, nil
}

// matchEnvironment implements spec §4.13 item 3: at each scope, every
// contained entity is checked by name (for an `entity` search), and its
// command aliases are checked if it is itself an Action/Exit and the
// actions it in turn contains are checked too (always, exact only). The
// walk stops at the first scope that yields an exact match; two matches
// of equal quality at that point are ambiguous.
func (p *DatabasePrims) matchEnvironment(ctx context.Context, site uint32, requester dbid.Id, search string, exact bool, typeFilter dbtype.EntityType) (dbid.Id, error) {
	target := normalizeForMatch(search)

	scopes, err := p.environmentScopes(ctx, requester)
	if err != nil {
		return dbid.Id{}, err
	}

	var exactMatches, partialMatches []dbid.Id

	for _, scope := range scopes {
		contents, err := p.GetContents(ctx, site, scope, ContentsFilter{AnyType: true})
		if err != nil {
			return dbid.Id{}, err
		}

		for _, candidate := range contents {
			if typeFilter != dbtype.TypeAction {
				if name, err := p.entityName(ctx, candidate); err == nil {
					if em, pm := matchQuality(target, exact, name); em {
						exactMatches = append(exactMatches, candidate)
					} else if pm {
						partialMatches = append(partialMatches, candidate)
					}
				}
			}

			// candidate itself may be an invokable Action/Exit (e.g. an
			// exit placed directly in a room); its aliases are always
			// checked regardless of typeFilter.
			if p.matchesAnyAlias(ctx, target, candidate) {
				exactMatches = append(exactMatches, candidate)
			}

			// every contained entity's own contents are checked for
			// attached actions too (e.g. a verb attached to an object).
			nested, err := p.GetContents(ctx, site, candidate, ContentsFilter{AnyType: true})
			if err != nil {
				return dbid.Id{}, err
			}

			for _, actionID := range nested {
				if p.matchesAnyAlias(ctx, target, actionID) {
					exactMatches = append(exactMatches, actionID)
				}
			}
		}

		if len(exactMatches) > 0 {
			break
		}
	}

	switch {
	case len(exactMatches) == 1:
		return exactMatches[0], nil
	case len(exactMatches) > 1:
		return dbid.Id{}, dberrors.Ambiguous("%q matches more than one entity", search)
	case len(partialMatches) == 1:
		return partialMatches[0], nil
	case len(partialMatches) > 1:
		return dbid.Id{}, dberrors.Ambiguous("%q matches more than one entity", search)
	default:
		return dbid.Id{}, dberrors.NotFound("no entity matches %q", search)
	}
}

func (p *DatabasePrims) matchesAnyAlias(ctx context.Context, target string, actionID dbid.Id) bool {
	var matched bool

	_ = p.withReader(ctx, actionID, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		aliases, err := e.ActionCommands(tok)
		if err != nil {
			return err
		}

		for _, alias := range aliases {
			if em, _ := matchQuality(target, true, alias); em {
				matched = true

				return nil
			}
		}

		return nil
	})

	return matched
}
