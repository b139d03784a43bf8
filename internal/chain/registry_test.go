package chain

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nocliffcapital/otcx-sub001/internal/models"
)

var testRegistryAddr = common.HexToAddress("0x0000000000000000000000000000000000000123")

func TestActiveProjects(t *testing.T) {
	token := common.HexToAddress("0x9999999999999999999999999999999999999999")
	tuples := []registryProject{
		{Slug: "lightspeed", Name: "Lightspeed", Token: token, IsPoints: false, Active: true, MetadataURI: "ipfs://Qm1"},
		{Slug: "nova-points", Name: "Nova Points", IsPoints: true, Active: true, MetadataURI: "ipfs://Qm2"},
	}

	output, err := registryABI.Methods["getActiveProjects"].Outputs.Pack(tuples)
	if err != nil {
		t.Fatalf("pack projects: %v", err)
	}

	reader := NewRegistryReader(&stubBackend{output: output}, testRegistryAddr)
	projects, err := reader.ActiveProjects(context.Background())
	if err != nil {
		t.Fatalf("ActiveProjects: %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}

	first := projects[0]
	if first.Slug != "lightspeed" || first.Name != "Lightspeed" {
		t.Errorf("project 0 = %+v", first)
	}
	if first.Token != token {
		t.Errorf("token = %s", first.Token)
	}
	if first.ID != models.ProjectID("lightspeed") {
		t.Error("project ID must be derived from the slug")
	}

	second := projects[1]
	if !second.IsPoints || second.HasToken() {
		t.Errorf("project 1 must be a tokenless points market, got %+v", second)
	}
}

func TestProjectBySlug(t *testing.T) {
	tuple := registryProject{Slug: "lightspeed", Name: "Lightspeed", Active: true}
	output, err := registryABI.Methods["getProject"].Outputs.Pack(tuple)
	if err != nil {
		t.Fatal(err)
	}

	reader := NewRegistryReader(&stubBackend{output: output}, testRegistryAddr)
	p, err := reader.ProjectBySlug(context.Background(), "lightspeed")
	if err != nil {
		t.Fatalf("ProjectBySlug: %v", err)
	}
	if p.Slug != "lightspeed" {
		t.Errorf("slug = %q", p.Slug)
	}
}

func TestProjectBySlug_NotFound(t *testing.T) {
	// Контракт возвращает пустой tuple для неизвестного слага.
	output, err := registryABI.Methods["getProject"].Outputs.Pack(registryProject{})
	if err != nil {
		t.Fatal(err)
	}

	reader := NewRegistryReader(&stubBackend{output: output}, testRegistryAddr)
	if _, err := reader.ProjectBySlug(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error for empty tuple")
	}
}
