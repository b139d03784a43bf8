package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
)

// registryProject matches the registry tuple components by field name for
// abi.ConvertType.
type registryProject struct {
	Slug        string
	Name        string
	Token       common.Address
	IsPoints    bool
	Active      bool
	MetadataURI string
}

// RegistryReader issues read-only calls against the project registry.
type RegistryReader struct {
	backend CallBackend
	addr    common.Address
}

func NewRegistryReader(backend CallBackend, addr common.Address) *RegistryReader {
	return &RegistryReader{backend: backend, addr: addr}
}

// Address returns the registry contract address.
func (r *RegistryReader) Address() common.Address { return r.addr }

func (r *RegistryReader) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := registryABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &r.addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := registryABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return out, nil
}

// ActiveProjects returns the registry's current active project list. Project
// IDs are derived from slugs, the same derivation the contract uses.
func (r *RegistryReader) ActiveProjects(ctx context.Context) ([]models.Project, error) {
	out, err := r.call(ctx, "getActiveProjects")
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new([]registryProject)).(*[]registryProject)

	projects := make([]models.Project, 0, len(raw))
	for _, p := range raw {
		projects = append(projects, projectFromTuple(p))
	}
	return projects, nil
}

// ProjectBySlug looks up a single project record.
func (r *RegistryReader) ProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	out, err := r.call(ctx, "getProject", slug)
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new(registryProject)).(*registryProject)
	if raw.Slug == "" {
		return nil, fmt.Errorf("project %q not found", slug)
	}

	p := projectFromTuple(raw)
	return &p, nil
}

func projectFromTuple(p registryProject) models.Project {
	return models.Project{
		ID:          models.ProjectID(p.Slug),
		Slug:        p.Slug,
		Name:        p.Name,
		Token:       p.Token,
		IsPoints:    p.IsPoints,
		Active:      p.Active,
		MetadataURI: p.MetadataURI,
	}
}
