package portfolio

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type Section string

const (
	SectionSkills       Section = "skills"
	SectionProjects     Section = "projects"
	SectionExperience   Section = "experience"
	SectionEducation    Section = "education"
	SectionCertificates Section = "certificates"
	SectionGallery      Section = "gallery"
)

// AllSections lists every child section in display order of the site.
var AllSections = []Section{
	SectionSkills,
	SectionProjects,
	SectionExperience,
	SectionEducation,
	SectionCertificates,
	SectionGallery,
}

func (s Section) Valid() bool {
	switch s {
	case SectionSkills, SectionProjects, SectionExperience, SectionEducation, SectionCertificates, SectionGallery:
		return true
	}
	return false
}

// ParseSections turns "skills, projects" into sections, dropping unknown
// names and duplicates while keeping first-seen order.
func ParseSections(csv string) []Section {
	seen := make(map[Section]bool)
	out := make([]Section, 0)
	for _, raw := range strings.Split(csv, ",") {
		s := Section(strings.ToLower(strings.TrimSpace(raw)))
		if !s.Valid() || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

type Skill struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Order int    `json:"-"`
}

// UnmarshalJSON accepts either {"name":..,"level":..} or a bare string.
func (s *Skill) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*s = Skill{Name: name}
		return nil
	}
	type plain Skill
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Skill(p)
	return nil
}

type Project struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	Technologies []string `json:"technologies"`
	GitHub       string   `json:"github"`
	Live         string   `json:"live"`
	Order        int      `json:"-"`
}

type Experience struct {
	ID          string `json:"id,omitempty"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Period      string `json:"period"`
	Description string `json:"description"`
	Order       int    `json:"-"`
}

type Education struct {
	ID          string `json:"id,omitempty"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Period      string `json:"period"`
	Order       int    `json:"-"`
}

// Certificate is stored with Name and URL; Title and CredentialURL are wire
// aliases kept for the admin dashboard.
type Certificate struct {
	ID     string
	Name   string
	Issuer string
	Date   string
	URL    string
	Image  string
	Order  int
}

type certificateJSON struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Name          string `json:"name"`
	Issuer        string `json:"issuer"`
	Date          string `json:"date"`
	CredentialURL string `json:"credentialUrl"`
	URL           string `json:"url"`
	Image         string `json:"image"`
}

func (c Certificate) MarshalJSON() ([]byte, error) {
	return json.Marshal(certificateJSON{
		ID:            c.ID,
		Title:         c.Name,
		Name:          c.Name,
		Issuer:        c.Issuer,
		Date:          c.Date,
		CredentialURL: c.URL,
		URL:           c.URL,
		Image:         c.Image,
	})
}

func (c *Certificate) UnmarshalJSON(b []byte) error {
	var w certificateJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Certificate{
		ID:     w.ID,
		Name:   firstNonEmpty(w.Name, w.Title),
		Issuer: w.Issuer,
		Date:   w.Date,
		URL:    firstNonEmpty(w.URL, w.CredentialURL),
		Image:  w.Image,
	}
	return nil
}

type GalleryItem struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Order       int    `json:"-"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// keepOrNewID keeps a client-supplied id when it is a UUID not already used
// in the same section, so records keep their identity across saves.
func keepOrNewID(id string, seen map[string]bool) string {
	if parsed, err := uuid.Parse(id); err == nil && parsed != uuid.Nil && !seen[parsed.String()] {
		seen[parsed.String()] = true
		return parsed.String()
	}
	id = uuid.NewString()
	seen[id] = true
	return id
}

// Normalize prepares the listed sections of doc for insertion: order becomes
// the array position, ids are assigned, nil slices become empty, and gallery
// entries without a title are dropped.
func Normalize(doc *Document, sections []Section) {
	for _, s := range sections {
		seen := make(map[string]bool)
		switch s {
		case SectionSkills:
			out := make([]Skill, 0, len(doc.Skills))
			for i, v := range doc.Skills {
				v.ID, v.Order = keepOrNewID(v.ID, seen), i
				out = append(out, v)
			}
			doc.Skills = out
		case SectionProjects:
			out := make([]Project, 0, len(doc.Projects))
			for i, v := range doc.Projects {
				v.ID, v.Order = keepOrNewID(v.ID, seen), i
				if v.Images == nil {
					v.Images = []string{}
				}
				if v.Technologies == nil {
					v.Technologies = []string{}
				}
				out = append(out, v)
			}
			doc.Projects = out
		case SectionExperience:
			out := make([]Experience, 0, len(doc.Experience))
			for i, v := range doc.Experience {
				v.ID, v.Order = keepOrNewID(v.ID, seen), i
				out = append(out, v)
			}
			doc.Experience = out
		case SectionEducation:
			out := make([]Education, 0, len(doc.Education))
			for i, v := range doc.Education {
				v.ID, v.Order = keepOrNewID(v.ID, seen), i
				out = append(out, v)
			}
			doc.Education = out
		case SectionCertificates:
			out := make([]Certificate, 0, len(doc.Certificates))
			for i, v := range doc.Certificates {
				v.ID, v.Order = keepOrNewID(v.ID, seen), i
				out = append(out, v)
			}
			doc.Certificates = out
		case SectionGallery:
			out := make([]GalleryItem, 0, len(doc.Gallery))
			for _, v := range doc.Gallery {
				if strings.TrimSpace(v.Title) == "" {
					continue
				}
				v.ID, v.Order = keepOrNewID(v.ID, seen), len(out)
				out = append(out, v)
			}
			doc.Gallery = out
		}
	}
}

// SortSections orders every section by ascending Order. Equal orders keep
// their relative position.
func SortSections(doc *Document) {
	sort.SliceStable(doc.Skills, func(i, j int) bool { return doc.Skills[i].Order < doc.Skills[j].Order })
	sort.SliceStable(doc.Projects, func(i, j int) bool { return doc.Projects[i].Order < doc.Projects[j].Order })
	sort.SliceStable(doc.Experience, func(i, j int) bool { return doc.Experience[i].Order < doc.Experience[j].Order })
	sort.SliceStable(doc.Education, func(i, j int) bool { return doc.Education[i].Order < doc.Education[j].Order })
	sort.SliceStable(doc.Certificates, func(i, j int) bool { return doc.Certificates[i].Order < doc.Certificates[j].Order })
	sort.SliceStable(doc.Gallery, func(i, j int) bool { return doc.Gallery[i].Order < doc.Gallery[j].Order })
}

// EnsureSections replaces nil sections with empty slices so they encode as [].
func EnsureSections(doc *Document) {
	if doc.Skills == nil {
		doc.Skills = []Skill{}
	}
	if doc.Projects == nil {
		doc.Projects = []Project{}
	}
	if doc.Experience == nil {
		doc.Experience = []Experience{}
	}
	if doc.Education == nil {
		doc.Education = []Education{}
	}
	if doc.Certificates == nil {
		doc.Certificates = []Certificate{}
	}
	if doc.Gallery == nil {
		doc.Gallery = []GalleryItem{}
	}
}

// Pick returns the listed sections of doc keyed by section name.
func (d Document) Pick(sections []Section) map[Section]any {
	out := make(map[Section]any, len(sections))
	for _, s := range sections {
		switch s {
		case SectionSkills:
			out[s] = d.Skills
		case SectionProjects:
			out[s] = d.Projects
		case SectionExperience:
			out[s] = d.Experience
		case SectionEducation:
			out[s] = d.Education
		case SectionCertificates:
			out[s] = d.Certificates
		case SectionGallery:
			out[s] = d.Gallery
		}
	}
	return out
}
