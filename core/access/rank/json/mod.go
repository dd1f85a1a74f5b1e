// Package json implements the JSON format for the ranking document.
package json

import (
	"encoding/json"

	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/access/rank/types"
	"go.dedis.ch/acta/crypto/common"
	"go.dedis.ch/acta/serde"
	"golang.org/x/xerrors"
)

func init() {
	types.RegisterRankingFormat(serde.FormatJSON, rankingFormat{})
}

// RankJSON is the JSON message for a single rank.
type RankJSON struct {
	Identity json.RawMessage
	Level    uint8
}

// RankingJSON is the JSON message for a ranking document.
type RankingJSON struct {
	Ranks []RankJSON
}

// RankingFormat is the format to encode and decode ranking messages.
//
// - implements serde.FormatEngine
type rankingFormat struct{}

// Encode implements serde.FormatEngine. It encodes the ranking message if
// appropriate, otherwise it returns an error.
func (rankingFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	ranking, ok := msg.(*types.Ranking)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	ranks := ranking.GetRanks()

	m := RankingJSON{
		Ranks: make([]RankJSON, len(ranks)),
	}

	for i, rank := range ranks {
		ident, err := rank.Identity.Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to serialize identity: %v", err)
		}

		m.Ranks[i] = RankJSON{
			Identity: ident,
			Level:    uint8(rank.Level),
		}
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the ranking from the data
// if appropriate, otherwise it returns an error.
func (rankingFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := RankingJSON{}
	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	fac := ctx.GetFactory(types.PublicKeyFac{})

	factory, ok := fac.(common.PublicKeyFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid public key factory '%T'", fac)
	}

	opts := make([]types.RankingOption, len(m.Ranks))

	for i, rank := range m.Ranks {
		ident, err := factory.PublicKeyOf(ctx, rank.Identity)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode identity: %v", err)
		}

		opts[i] = types.WithRank(access.Level(rank.Level), ident)
	}

	ranking, err := types.NewRanking(opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create ranking: %v", err)
	}

	return ranking, nil
}
