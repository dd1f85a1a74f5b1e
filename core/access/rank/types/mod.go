// Package types implements the ranking document and its serialization
// formats.
//
// The ranking is the persistent state of the permission store. It associates
// each known identity with the permission level it holds. Identities absent
// from the document hold the default level.
package types

import (
	"sort"

	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/crypto/common"
	"go.dedis.ch/acta/serde"
	"go.dedis.ch/acta/serde/registry"
	"golang.org/x/xerrors"
)

var rankingFormats = registry.NewSimpleRegistry()

// RegisterRankingFormat registers the engine for the provided format.
func RegisterRankingFormat(f serde.Format, e serde.FormatEngine) {
	rankingFormats.Register(f, e)
}

// Rank is the association of an identity to a permission level.
type Rank struct {
	Identity access.Identity
	Level    access.Level
}

// Ranking is the document mapping identities to their permission levels.
//
// - implements serde.Message
type Ranking struct {
	ranks map[string]Rank
}

// RankingOption is the option type to create a ranking.
type RankingOption func(*Ranking) error

// WithRank is an option to grant a level to a group of identities.
func WithRank(level access.Level, idents ...access.Identity) RankingOption {
	return func(ranking *Ranking) error {
		return ranking.Grant(level, idents...)
	}
}

// NewRanking returns a new ranking populated with the options.
func NewRanking(opts ...RankingOption) (*Ranking, error) {
	ranking := &Ranking{
		ranks: make(map[string]Rank),
	}

	for _, opt := range opts {
		err := opt(ranking)
		if err != nil {
			return nil, err
		}
	}

	return ranking, nil
}

// Grant updates the document so that the identities hold the given level. A
// grant of the default level removes the identity from the document.
func (ranking *Ranking) Grant(level access.Level, idents ...access.Identity) error {
	for _, ident := range idents {
		key, err := keyOf(ident)
		if err != nil {
			return err
		}

		if level == access.None {
			delete(ranking.ranks, key)
			continue
		}

		ranking.ranks[key] = Rank{Identity: ident, Level: level}
	}

	return nil
}

// Revoke removes the identities from the document.
func (ranking *Ranking) Revoke(idents ...access.Identity) error {
	for _, ident := range idents {
		key, err := keyOf(ident)
		if err != nil {
			return err
		}

		delete(ranking.ranks, key)
	}

	return nil
}

// LevelOf returns the level the identity holds. An identity absent from the
// document holds the default level.
func (ranking *Ranking) LevelOf(ident access.Identity) (access.Level, error) {
	key, err := keyOf(ident)
	if err != nil {
		return access.None, err
	}

	return ranking.ranks[key].Level, nil
}

// Match returns nil if every identity holds at least the required level,
// otherwise the reason why access is denied.
func (ranking *Ranking) Match(required access.Level, idents ...access.Identity) error {
	if len(idents) == 0 {
		return xerrors.New("expect at least one identity")
	}

	for _, ident := range idents {
		level, err := ranking.LevelOf(ident)
		if err != nil {
			return err
		}

		if level < required {
			return xerrors.Errorf("%v has level %v but %v is required",
				ident, level, required)
		}
	}

	return nil
}

// GetRanks returns the list of ranks sorted by identity.
func (ranking *Ranking) GetRanks() []Rank {
	keys := make(sort.StringSlice, 0, len(ranking.ranks))
	for key := range ranking.ranks {
		keys = append(keys, key)
	}

	sort.Sort(keys)

	ranks := make([]Rank, len(keys))
	for i, key := range keys {
		ranks[i] = ranking.ranks[key]
	}

	return ranks
}

// Serialize implements serde.Message. It looks up the format and returns the
// serialized data of the ranking.
func (ranking *Ranking) Serialize(ctx serde.Context) ([]byte, error) {
	format := rankingFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, ranking)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode ranking: %v", err)
	}

	return data, nil
}

func keyOf(ident access.Identity) (string, error) {
	text, err := ident.MarshalText()
	if err != nil {
		return "", xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	return string(text), nil
}

// PublicKeyFac is the key of the public key factory.
type PublicKeyFac struct{}

// RankingFactory is the factory to deserialize ranking documents.
type RankingFactory interface {
	serde.Factory

	RankingOf(serde.Context, []byte) (*Ranking, error)
}

// rankingFac is the implementation of a ranking factory.
//
// - implements types.RankingFactory
type rankingFac struct {
	fac common.PublicKeyFactory
}

// NewFactory returns a new instance of the factory.
func NewFactory() RankingFactory {
	return rankingFac{
		fac: common.NewPublicKeyFactory(),
	}
}

// Deserialize implements serde.Factory. It populates the ranking from the data
// if appropriate, otherwise it returns an error.
func (f rankingFac) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.RankingOf(ctx, data)
}

// RankingOf implements types.RankingFactory. It populates the ranking from the
// data if appropriate, otherwise it returns an error.
func (f rankingFac) RankingOf(ctx serde.Context, data []byte) (*Ranking, error) {
	format := rankingFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, PublicKeyFac{}, f.fac)

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode ranking: %v", err)
	}

	ranking, ok := msg.(*Ranking)
	if !ok {
		return nil, xerrors.Errorf("invalid ranking of type '%T'", msg)
	}

	return ranking, nil
}
