package portfolio

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatch_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{"", "null", "[]", `"text"`, "42", "{bad json", `{"skills": {"name": "Go"}}`, `{"personal": "me"}`, `{"personal": {"name": 7}}`} {
		_, err := ParsePatch([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidPatch, "body %q", body)
	}
}

func TestParsePatch_TracksPresentKeys(t *testing.T) {
	patch, err := ParsePatch([]byte(`{"personal":{"name":"X"},"skills":null,"projects":[{"title":"A"}],"unknown":1}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]json.RawMessage{"name": json.RawMessage(`"X"`)}, patch.Personal)
	assert.Nil(t, patch.Social)
	assert.Nil(t, patch.IsCustomized)
	assert.Equal(t, []Section{SectionSkills, SectionProjects}, patch.Sections)
	assert.Empty(t, patch.Document.Skills)
	require.Len(t, patch.Document.Projects, 1)
	assert.Equal(t, "A", patch.Document.Projects[0].Title)
	assert.False(t, patch.Has(SectionGallery))
}

func TestSkill_AcceptsBareString(t *testing.T) {
	var skills []Skill
	require.NoError(t, json.Unmarshal([]byte(`["Go", {"name":"SQL","level":60}]`), &skills))

	assert.Equal(t, []Skill{{Name: "Go"}, {Name: "SQL", Level: 60}}, skills)
}

func TestCertificate_Aliases(t *testing.T) {
	var c Certificate
	require.NoError(t, json.Unmarshal([]byte(`{"title":"CKA","credentialUrl":"https://cert/1","issuer":"CNCF"}`), &c))
	assert.Equal(t, "CKA", c.Name)
	assert.Equal(t, "https://cert/1", c.URL)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(out, &wire))
	assert.Equal(t, "CKA", wire["title"])
	assert.Equal(t, "CKA", wire["name"])
	assert.Equal(t, "https://cert/1", wire["credentialUrl"])
	assert.Equal(t, "https://cert/1", wire["url"])
	assert.NotContains(t, wire, "order")
}

func TestApply_PartialMergesPersonal(t *testing.T) {
	p := &Portfolio{Personal: Personal{Name: "Old", Title: "Engineer", Email: PlaceholderEmail}}
	patch, err := ParsePatch([]byte(`{"personal":{"email":"me@x.com"}}`))
	require.NoError(t, err)

	p.Apply(patch, true)

	assert.Equal(t, "Old", p.Personal.Name)
	assert.Equal(t, "Engineer", p.Personal.Title)
	assert.Equal(t, "me@x.com", p.Personal.Email)
	assert.True(t, p.IsCustomized)
}

func TestApply_FullReplacesPresentObjects(t *testing.T) {
	p := &Portfolio{
		Personal: Personal{Name: "Old", Title: "Engineer"},
		Social:   Social{GitHub: "gh"},
	}
	patch, err := ParsePatch([]byte(`{"personal":{"name":"New"}}`))
	require.NoError(t, err)

	p.Apply(patch, false)

	assert.Equal(t, Personal{Name: "New"}, p.Personal)
	assert.Equal(t, Social{GitHub: "gh"}, p.Social, "absent keys stay untouched")
}

func TestApply_CustomizedFlag(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name     string
		stored   bool
		explicit *bool
		email    string
		want     bool
	}{
		{"placeholder email stays default", false, nil, PlaceholderEmail, false},
		{"custom email flips flag", false, nil, "me@x.com", true},
		{"explicit true wins", false, &yes, PlaceholderEmail, true},
		{"explicit false wins over email", false, &no, "me@x.com", false},
		{"sticky once true", true, &no, PlaceholderEmail, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Portfolio{IsCustomized: tt.stored, Personal: Personal{Email: tt.email}}
			p.Apply(Patch{IsCustomized: tt.explicit}, true)
			assert.Equal(t, tt.want, p.IsCustomized)
		})
	}
}

func TestNormalize(t *testing.T) {
	keep := uuid.NewString()
	doc := Document{
		Projects: []Project{{ID: keep, Title: "A", Order: 9}, {ID: "not-a-uuid", Title: "B"}, {Title: "C"}},
		Gallery:  []GalleryItem{{Title: ""}, {Title: "Sunset"}, {Title: "  "}, {Title: "Harbor"}},
	}

	Normalize(&doc, []Section{SectionProjects, SectionGallery, SectionSkills})

	require.Len(t, doc.Projects, 3)
	assert.Equal(t, keep, doc.Projects[0].ID)
	assert.NotEqual(t, "not-a-uuid", doc.Projects[1].ID)
	for i, p := range doc.Projects {
		assert.Equal(t, i, p.Order)
		assert.NotNil(t, p.Images)
		assert.NotNil(t, p.Technologies)
	}
	require.Len(t, doc.Gallery, 2)
	assert.Equal(t, "Sunset", doc.Gallery[0].Title)
	assert.Equal(t, 1, doc.Gallery[1].Order)
	assert.NotNil(t, doc.Skills)
}

func TestSortSections_StableByOrder(t *testing.T) {
	doc := Document{Projects: []Project{
		{Title: "C", Order: 2}, {Title: "A", Order: 0}, {Title: "B1", Order: 1}, {Title: "B2", Order: 1},
	}}

	SortSections(&doc)

	var titles []string
	for _, p := range doc.Projects {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"A", "B1", "B2", "C"}, titles)
}

func TestParseSections(t *testing.T) {
	assert.Equal(t, []Section{SectionSkills, SectionGallery}, ParseSections(" Skills,unknown,gallery,skills"))
	assert.Empty(t, ParseSections(""))
}

func TestTouch_AlwaysAdvancesVersion(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &Portfolio{}

	p.Touch(now)
	first := p.Version()
	p.Touch(now)

	assert.Equal(t, now.UnixMilli(), first)
	assert.Greater(t, p.Version(), first)
	assert.Equal(t, now, p.CreatedAt)
}

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()
	assert.False(t, IsCustomEmail(doc.Personal.Email))

	doc.Skills[0].Name = "changed"
	assert.NotEqual(t, "changed", DefaultDocument().Skills[0].Name)
	assert.Equal(t, int64(0), DefaultSnapshot().Version)
}

func TestNormalize_ReplacesDuplicateIDs(t *testing.T) {
	id := uuid.NewString()
	doc := Document{Skills: []Skill{{ID: id, Name: "Go"}, {ID: id, Name: "SQL"}}}

	Normalize(&doc, []Section{SectionSkills})

	assert.Equal(t, id, doc.Skills[0].ID)
	assert.NotEqual(t, id, doc.Skills[1].ID)
}

func TestPick_ReturnsOnlyListedSections(t *testing.T) {
	doc := Document{
		Skills:  []Skill{{Name: "Go"}},
		Gallery: []GalleryItem{{Title: "Beach"}},
	}

	got := doc.Pick([]Section{SectionSkills, SectionGallery})

	assert.Len(t, got, 2)
	assert.Equal(t, doc.Skills, got[SectionSkills])
	assert.Equal(t, doc.Gallery, got[SectionGallery])
	assert.NotContains(t, got, SectionProjects)
}
