package controller

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Genesis describes the initial state of the kernel. It is loaded from a
// YAML file given with the --genesis flag and replayed as authority-signed
// transactions.
type Genesis struct {
	Ranks []RankEntry `yaml:"ranks"`
	Funds []FundEntry `yaml:"funds"`
}

// RankEntry is the initial level of an identity. The identity is base64
// encoded and the level is given by name or by numeric value.
type RankEntry struct {
	Identity string `yaml:"identity"`
	Level    string `yaml:"level"`
}

// FundEntry is the initial balance of an identity.
type FundEntry struct {
	Identity string `yaml:"identity"`
	Amount   uint64 `yaml:"amount"`
}

// LoadGenesis reads and parses the genesis file.
func LoadGenesis(path string) (Genesis, error) {
	genesis := Genesis{}

	data, err := os.ReadFile(path)
	if err != nil {
		return genesis, xerrors.Errorf("failed to read genesis file: %v", err)
	}

	err = yaml.Unmarshal(data, &genesis)
	if err != nil {
		return genesis, xerrors.Errorf("failed to unmarshal genesis: %v", err)
	}

	return genesis, nil
}
