package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Project is one listing of the registry contract. The authoritative copy
// lives on-chain; this struct is a read-through view held for one refresh
// cycle only.
type Project struct {
	ID          common.Hash
	Slug        string
	Name        string
	Token       common.Address // zero until the token contract exists
	IsPoints    bool           // points market vs transferable token
	Active      bool
	MetadataURI string
}

// ProjectID derives the registry key for a slug. Projects are keyed by a
// keccak256 hash of the slug so they can be listed before their token
// contract is deployed.
func ProjectID(slug string) common.Hash {
	return crypto.Keccak256Hash([]byte(slug))
}

// HasToken reports whether the project's token contract address is known.
func (p *Project) HasToken() bool {
	return p.Token != (common.Address{})
}
