package portfolio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidPatch      = errors.New("invalid data format")
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// Patch is a decoded save request. Only keys present in the request body are
// recorded; a section sent as null counts as present and empty.
type Patch struct {
	Personal     map[string]json.RawMessage
	Social       map[string]json.RawMessage
	IsCustomized *bool
	Sections     []Section
	Document     Document
}

func (p Patch) Has(s Section) bool {
	for _, v := range p.Sections {
		if v == s {
			return true
		}
	}
	return false
}

func (p Patch) Empty() bool {
	return p.Personal == nil && p.Social == nil && p.IsCustomized == nil && len(p.Sections) == 0
}

// ParsePatch decodes raw into a Patch. The body must be a JSON object and
// every known key must have the expected shape.
func ParsePatch(raw []byte) (Patch, error) {
	var patch Patch
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return patch, ErrInvalidPatch
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return patch, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	var err error
	if patch.Personal, err = objectField[Personal](fields, "personal"); err != nil {
		return patch, err
	}
	if patch.Social, err = objectField[Social](fields, "social"); err != nil {
		return patch, err
	}
	if v, ok := fields["isCustomized"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil && !isNull(v) {
			patch.IsCustomized = &b
		}
	}

	for _, s := range AllSections {
		v, ok := fields[string(s)]
		if !ok {
			continue
		}
		if !isNull(v) && (len(v) == 0 || v[0] != '[') {
			return patch, fmt.Errorf("%w: %s must be an array", ErrInvalidPatch, s)
		}
		var target any
		switch s {
		case SectionSkills:
			target = &patch.Document.Skills
		case SectionProjects:
			target = &patch.Document.Projects
		case SectionExperience:
			target = &patch.Document.Experience
		case SectionEducation:
			target = &patch.Document.Education
		case SectionCertificates:
			target = &patch.Document.Certificates
		case SectionGallery:
			target = &patch.Document.Gallery
		}
		if err := json.Unmarshal(v, target); err != nil {
			return patch, fmt.Errorf("%w: %s: %v", ErrInvalidPatch, s, err)
		}
		patch.Sections = append(patch.Sections, s)
	}
	return patch, nil
}

// PatchFromDocument builds a full patch that carries every field of doc.
func PatchFromDocument(doc Document, customized *bool) Patch {
	personal, _ := objectFields(doc.Personal)
	social, _ := objectFields(doc.Social)
	return Patch{
		Personal:     personal,
		Social:       social,
		IsCustomized: customized,
		Sections:     append([]Section(nil), AllSections...),
		Document:     doc,
	}
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func objectField[T any](fields map[string]json.RawMessage, key string) (map[string]json.RawMessage, error) {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return nil, nil
	}
	var probe T
	if err := json.Unmarshal(v, &probe); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPatch, key, err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidPatch, key)
	}
	return out, nil
}

func objectFields(v any) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	return out, json.Unmarshal(b, &out)
}

func overlay[T any](base T, fields map[string]json.RawMessage) T {
	merged, err := objectFields(base)
	if err != nil {
		return base
	}
	for k, v := range fields {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return base
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return base
	}
	return out
}

// Apply writes the scalar part of patch onto p. In partial mode personal and
// social keys are merged onto the stored values; otherwise a present object
// replaces the stored one. Absent keys are never touched.
func (p *Portfolio) Apply(patch Patch, partial bool) {
	if patch.Personal != nil {
		base := p.Personal
		if !partial {
			base = Personal{}
		}
		p.Personal = overlay(base, patch.Personal)
	}
	if patch.Social != nil {
		base := p.Social
		if !partial {
			base = Social{}
		}
		p.Social = overlay(base, patch.Social)
	}

	switch {
	case p.IsCustomized:
	case patch.IsCustomized != nil:
		p.IsCustomized = *patch.IsCustomized
	default:
		p.IsCustomized = IsCustomEmail(p.Personal.Email)
	}
}

// Touch advances UpdatedAt to now, moving it at least one millisecond past the
// previous value so every write yields a new version.
func (p *Portfolio) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	if !p.UpdatedAt.IsZero() && !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Millisecond)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
