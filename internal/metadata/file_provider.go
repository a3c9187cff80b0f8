package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"consentadmin/pkg/platform/sentinel"
)

// Document is the on-disk shape consumed by FileProvider.
type Document struct {
	// Current maps a metadata set to the entity ID hosted in it.
	Current map[string]string `json:"current"`

	// IdentitySources maps set -> entity ID -> descriptor.
	IdentitySources map[string]map[string]*IdentitySource `json:"identitySources"`

	// RelyingParties maps set -> entity ID -> descriptor.
	RelyingParties map[string]map[string]*RelyingParty `json:"relyingParties"`
}

// FileProvider serves descriptors from a JSON document loaded once at
// startup. Deployments with live metadata feeds implement Provider against
// their own backend.
type FileProvider struct {
	doc Document
}

// NewFileProvider loads and indexes the document at path.
func NewFileProvider(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata document: %w", err)
	}
	return NewStaticProvider(doc), nil
}

// NewStaticProvider wraps an in-memory document. Used by tests and by
// deployments that assemble descriptors programmatically.
func NewStaticProvider(doc Document) *FileProvider {
	for set, sources := range doc.IdentitySources {
		for entityID, src := range sources {
			fillSource(src, entityID, set)
		}
	}
	for set, rps := range doc.RelyingParties {
		for entityID, rp := range rps {
			fillRelyingParty(rp, entityID, set)
		}
	}
	return &FileProvider{doc: doc}
}

func (p *FileProvider) CurrentSourceID(_ context.Context, set string) (string, error) {
	entityID, ok := p.doc.Current[set]
	if !ok {
		return "", fmt.Errorf("current entity for set %q: %w", set, sentinel.ErrNotFound)
	}
	return entityID, nil
}

func (p *FileProvider) IdentitySource(_ context.Context, entityID, set string) (*IdentitySource, error) {
	src, ok := p.doc.IdentitySources[set][entityID]
	if !ok {
		return nil, fmt.Errorf("identity source %q in set %q: %w", entityID, set, sentinel.ErrNotFound)
	}
	return src, nil
}

func (p *FileProvider) RelyingParty(_ context.Context, entityID, set string) (*RelyingParty, error) {
	rp, ok := p.doc.RelyingParties[set][entityID]
	if !ok {
		return nil, fmt.Errorf("relying party %q in set %q: %w", entityID, set, sentinel.ErrNotFound)
	}
	return rp, nil
}

func (p *FileProvider) ListRelyingParties(_ context.Context, set string) ([]*RelyingParty, error) {
	entries := p.doc.RelyingParties[set]
	out := make([]*RelyingParty, 0, len(entries))
	for _, rp := range entries {
		out = append(out, rp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func fillSource(src *IdentitySource, entityID, set string) {
	if src.EntityID == "" {
		src.EntityID = entityID
	}
	if src.MetadataSet == "" {
		src.MetadataSet = set
	}
}

func fillRelyingParty(rp *RelyingParty, entityID, set string) {
	if rp.EntityID == "" {
		rp.EntityID = entityID
	}
	if rp.MetadataSet == "" {
		rp.MetadataSet = set
	}
}
